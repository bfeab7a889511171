package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/DmytroLysenko1/Store/pkg/errors"
)

// DownstreamErrorResponse covers the error bodies the storefront backends
// return. The feedback and catalogue services answer a rejected write with a
// problem document carrying an "errors" list; older builds spell it "erors".
// Services built on pkg/httputil wrap a single message in an "error" envelope.
type DownstreamErrorResponse struct {
	Errors       []string `json:"errors"`
	LegacyErrors []string `json:"erors"`
	Detail       string   `json:"detail"`
	Error        *struct {
		Code    string   `json:"code"`
		Message string   `json:"message"`
		Errors  []string `json:"errors"`
	} `json:"error"`
}

// messages returns the ordered list of human-readable messages in the body.
func (d *DownstreamErrorResponse) messages() []string {
	switch {
	case len(d.Errors) > 0:
		return d.Errors
	case len(d.LegacyErrors) > 0:
		return d.LegacyErrors
	case d.Error != nil && len(d.Error.Errors) > 0:
		return d.Error.Errors
	case d.Error != nil && d.Error.Message != "":
		return []string{d.Error.Message}
	case d.Detail != "":
		return []string{d.Detail}
	}
	return nil
}

// ParseResponseError reads the body of a non-2xx HTTP response and translates
// it into one of the four outcome classes:
//
//	404     -> NotFound
//	400     -> ValidationFailed with the server's messages, order preserved
//	401/403 -> Unauthorized / Forbidden
//	other   -> Upstream (fatal)
//
// The caller should only invoke this when resp.StatusCode indicates an error
// (i.e., not 2xx). The response body is fully consumed and closed.
func ParseResponseError(resp *http.Response, serviceName string) error {
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB limit
	if err != nil {
		return apperrors.Upstream(
			fmt.Sprintf("%s returned status %d", serviceName, resp.StatusCode),
			fmt.Errorf("read body: %w", err),
		)
	}

	var downstream DownstreamErrorResponse
	parsed := len(bodyBytes) > 0 && json.Unmarshal(bodyBytes, &downstream) == nil

	switch resp.StatusCode {
	case http.StatusNotFound:
		return apperrors.NotFound(serviceName+" resource", requestPath(resp))
	case http.StatusBadRequest:
		if !parsed {
			// A 400 we can't read is still a rejection, but it carries no
			// messages worth showing.
			return apperrors.ValidationFailed(serviceName+" rejected the request", nil)
		}
		return apperrors.ValidationFailed(serviceName+" rejected the request", downstream.messages())
	case http.StatusUnauthorized:
		return apperrors.Unauthorized(qualify(serviceName, &downstream, "credential rejected"))
	case http.StatusForbidden:
		return apperrors.Forbidden(qualify(serviceName, &downstream, "access denied"))
	case http.StatusServiceUnavailable:
		unavail := apperrors.ServiceUnavailable(qualify(serviceName, &downstream, "service unavailable"))
		return apperrors.Upstream(unavail.Message, unavail)
	}

	body := strings.TrimSpace(string(bodyBytes))
	return apperrors.Upstream(
		fmt.Sprintf("%s returned status %d", serviceName, resp.StatusCode),
		fmt.Errorf("unexpected response: %s", truncate(body, 256)),
	)
}

// qualify prefixes the first downstream message (or fallback) with the
// service name.
func qualify(serviceName string, d *DownstreamErrorResponse, fallback string) string {
	if msgs := d.messages(); len(msgs) > 0 {
		return fmt.Sprintf("%s: %s", serviceName, msgs[0])
	}
	return fmt.Sprintf("%s: %s", serviceName, fallback)
}

func requestPath(resp *http.Response) string {
	if resp.Request == nil || resp.Request.URL == nil {
		return "unknown"
	}
	return resp.Request.URL.Path
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// IsSuccess returns true for 2xx status codes.
func IsSuccess(status int) bool {
	return status >= 200 && status < 300
}
