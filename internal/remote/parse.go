package remote

import (
	"context"
	"encoding/json"
	"strings"
)

// parsePostBody interprets a POST response. Three non-error outcomes
// are NOT failures: an empty body, an HTML body (the redirect landing
// page), and an unparsable body. All three mean the endpoint accepted
// the write and the response was eaten by the redirect.
func (c *Client) parsePostBody(ctx context.Context, body []byte, status int, out any) (PostResult, error) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return PostResult{}, nil
	}
	if strings.HasPrefix(trimmed, "<") {
		return PostResult{}, nil
	}

	var ev envelope
	if err := json.Unmarshal([]byte(trimmed), &ev); err != nil {
		return PostResult{}, nil
	}

	if bool(ev.Success) {
		if out != nil {
			// Shape mismatches are tolerated the same way an empty
			// body is; callers check for missing fields.
			_ = json.Unmarshal([]byte(trimmed), out)
		}
		return PostResult{}, nil
	}

	code := ev.Code
	if code == "" {
		code = ev.Error
	}
	if code == string(CodeAuthRequired) || code == string(CodeAccessDenied) {
		return PostResult{}, c.rejection(ctx, ev, status)
	}

	if isBenignValidation(ev) {
		c.log.Warn("ignoring sheet validation warning, data was written", "message", rejectionMessage(ev))
		return PostResult{ValidationWarning: true}, nil
	}

	return PostResult{}, &APIError{Code: CodeRejected, Message: rejectionMessage(ev), HTTPStatus: status}
}

// isBenignValidation matches the remote store's own input-validation
// complaint that fires after the row was already written. The wording
// match is a latent coupling to one backend's message text; if that
// wording ever changes, these writes start surfacing as failures. The
// match lives here, at the protocol boundary, and nowhere else.
func isBenignValidation(ev envelope) bool {
	msg := rejectionMessage(ev)
	return strings.Contains(msg, "data validation rules") || strings.Contains(msg, "cell B")
}

func rejectionMessage(ev envelope) string {
	if ev.Message != "" {
		return ev.Message
	}
	if ev.Error != "" {
		return ev.Error
	}
	return "submit rejected"
}
