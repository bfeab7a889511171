package httpclient

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	apperrors "github.com/DmytroLysenko1/Store/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeResponse creates an *http.Response with the given status code and body string.
func makeResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestParseResponseError_NotFound(t *testing.T) {
	resp := makeResponse(http.StatusNotFound, `{"detail":"Product not found"}`)
	resp.Request = &http.Request{URL: &url.URL{Path: "/catalogue-api/products/42"}}

	err := ParseResponseError(resp, "catalogue")

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
	assert.Contains(t, appErr.Message, "/catalogue-api/products/42")
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestParseResponseError_NotFoundWithoutRequest(t *testing.T) {
	err := ParseResponseError(makeResponse(http.StatusNotFound, ""), "catalogue")
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestParseResponseError_BadRequestBodies(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{
			name: "problem document",
			body: `{"title":"Bad Request","errors":["Rating must be at least 1","Review is too long"]}`,
			want: []string{"Rating must be at least 1", "Review is too long"},
		},
		{
			name: "legacy spelling",
			body: `{"erors":["Review is required"]}`,
			want: []string{"Review is required"},
		},
		{
			name: "envelope with list",
			body: `{"error":{"code":"VALIDATION_FAILED","message":"bad","errors":["a","b"]}}`,
			want: []string{"a", "b"},
		},
		{
			name: "envelope with message only",
			body: `{"error":{"code":"INVALID_INPUT","message":"missing field"}}`,
			want: []string{"missing field"},
		},
		{
			name: "detail only",
			body: `{"detail":"filter too long"}`,
			want: []string{"filter too long"},
		},
		{
			name: "unparseable",
			body: `<html>oops</html>`,
			want: nil,
		},
		{
			name: "empty",
			body: ``,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ParseResponseError(makeResponse(http.StatusBadRequest, tt.body), "feedback")
			require.Error(t, err)
			assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
			assert.Equal(t, tt.want, apperrors.ValidationMessages(err))
			assert.True(t, errors.Is(err, apperrors.ErrValidation))
		})
	}
}

func TestParseResponseError_Unauthorized(t *testing.T) {
	err := ParseResponseError(makeResponse(http.StatusUnauthorized, `{"detail":"token expired"}`), "feedback")

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "feedback: token expired", appErr.Message)
	assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))
}

func TestParseResponseError_Forbidden(t *testing.T) {
	err := ParseResponseError(makeResponse(http.StatusForbidden, ``), "feedback")

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "feedback: access denied", appErr.Message)
	assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))
}

func TestParseResponseError_ServiceUnavailable(t *testing.T) {
	err := ParseResponseError(makeResponse(http.StatusServiceUnavailable, ``), "catalogue")

	assert.True(t, errors.Is(err, apperrors.ErrUpstream))
	assert.True(t, errors.Is(err, apperrors.ErrServiceUnavail))
	assert.Equal(t, apperrors.KindFatal, apperrors.KindOf(err))
}

func TestParseResponseError_OtherStatusesAreFatal(t *testing.T) {
	for _, status := range []int{http.StatusConflict, http.StatusGone, http.StatusTeapot, 500, 502} {
		err := ParseResponseError(makeResponse(status, `{"error":{"message":"x"}}`), "catalogue")
		assert.Equal(t, apperrors.KindFatal, apperrors.KindOf(err), "status %d", status)
		assert.True(t, errors.Is(err, apperrors.ErrUpstream), "status %d", status)
	}
}

func TestParseResponseError_TruncatesLongBodies(t *testing.T) {
	err := ParseResponseError(makeResponse(http.StatusInternalServerError, strings.Repeat("x", 1000)), "catalogue")
	assert.Less(t, len(err.Error()), 500)
	assert.Contains(t, err.Error(), "...")
}

func TestIsSuccess(t *testing.T) {
	assert.True(t, IsSuccess(200))
	assert.True(t, IsSuccess(204))
	assert.False(t, IsSuccess(303))
}
