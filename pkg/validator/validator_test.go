package validator

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reviewForm struct {
	Rating int    `json:"rating" validate:"gte=1,lte=5"`
	Review string `json:"review" validate:"max=1000"`
	Note   string `validate:"omitempty,min=2"`
}

func TestValidate_Success(t *testing.T) {
	assert.NoError(t, Validate(reviewForm{Rating: 4, Review: "nice"}))
}

func TestValidate_UsesJSONNames(t *testing.T) {
	err := Validate(reviewForm{Rating: 0})
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)

	assert.Equal(t, map[string]string{"rating": "must be greater than or equal to 1"}, valErr.Fields())
}

func TestValidate_FallsBackToFieldName(t *testing.T) {
	err := Validate(reviewForm{Rating: 3, Note: "x"})
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)

	assert.Equal(t, "must be at least 2 characters", valErr.Fields()["Note"])
}

func TestValidationError_MessagesKeepFieldOrder(t *testing.T) {
	err := Validate(reviewForm{Rating: 9, Review: strings.Repeat("a", 1001)})
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)

	assert.Equal(t, []string{
		"field 'rating' must be less than or equal to 5",
		"field 'review' must be at most 1000 characters",
	}, valErr.Messages())
	assert.Equal(t, strings.Join(valErr.Messages(), "; "), err.Error())
}

func TestValidate_NonStruct(t *testing.T) {
	err := Validate("not a struct")
	require.Error(t, err)
	var valErr *ValidationError
	assert.NotErrorAs(t, err, &valErr)
}

func TestDecodeAndValidate(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"valid", `{"rating":5,"review":"good"}`, ""},
		{"invalid json", `{"rating":`, "decode request body"},
		{"fails validation", `{"rating":0}`, "field 'rating'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var form reviewForm
			err := DecodeAndValidate(req, &form)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, 5, form.Rating)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
