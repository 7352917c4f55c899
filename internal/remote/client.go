// Package remote issues signed calls against the ledger's RPC endpoint
// and normalizes its response quirks into structured results. The
// endpoint is a script execution target: POSTs may bounce through an
// HTML landing page, bodies may be empty, and the success flag arrives
// in three spellings. None of those are failures here.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fllscore/ddzledger/internal/hmacsig"
	"github.com/fllscore/ddzledger/internal/session"
)

// DefaultTimeout bounds every remote call.
const DefaultTimeout = 30 * time.Second

// RPC actions the endpoint understands.
const (
	ActionCheckAccess = "checkAccess"
	ActionGetParams   = "getParams"
	ActionGetHistory  = "getHistory"
	ActionGetStats    = "getStats"
	ActionSubmit      = "submit"
	ActionDeleteLast  = "deleteLastGame"
	ActionGetVersion  = "getVersion"
)

// authExempt lists actions callable without an authenticated identity.
var authExempt = map[string]bool{
	ActionCheckAccess: true,
}

// Config assembles a Client. Session is a required constructor
// dependency: there is no package-level identity.
type Config struct {
	Endpoint   string
	AppVersion string
	Signer     *hmacsig.Signer
	Session    *session.Cache
	HTTPClient *http.Client
	Timeout    time.Duration
	Logger     *slog.Logger
}

// Client issues signed GET/POST calls to the RPC endpoint.
type Client struct {
	endpoint   string
	appVersion string
	signer     *hmacsig.Signer
	session    *session.Cache
	httpc      *http.Client
	timeout    time.Duration
	log        *slog.Logger
}

// New creates a Client from the given config.
func New(cfg Config) *Client {
	c := &Client{
		endpoint:   cfg.Endpoint,
		appVersion: cfg.AppVersion,
		signer:     cfg.Signer,
		session:    cfg.Session,
		httpc:      cfg.HTTPClient,
		timeout:    cfg.Timeout,
		log:        cfg.Logger,
	}
	if c.httpc == nil {
		c.httpc = &http.Client{}
	}
	if c.timeout == 0 {
		c.timeout = DefaultTimeout
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	return c
}

// envelope is the generic response wrapper every JSON body carries.
type envelope struct {
	Success flexBool `json:"success"`
	Code    string   `json:"code"`
	Error   string   `json:"error"`
	Message string   `json:"message"`
}

// flexBool accepts the three spellings of success the endpoint emits:
// true, "true", and 1. Anything else is false.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	switch strings.TrimSpace(string(data)) {
	case "true", `"true"`, "1":
		*b = true
	default:
		*b = false
	}
	return nil
}

// get issues a signed GET and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, action string, params url.Values, out any) error {
	email := c.session.Email(ctx)
	if !authExempt[action] && email == "" {
		return &APIError{Code: CodeNotLoggedIn, Message: "no authenticated identity"}
	}

	env := c.signer.Sign(action, email)
	q := url.Values{}
	q.Set("action", action)
	q.Set("appVersion", c.appVersion)
	if email != "" {
		q.Set("userEmail", email)
	}
	q.Set("sig", env.Signature)
	q.Set("ts", env.Timestamp)
	q.Set("nonce", env.Nonce)
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}

	body, status, err := c.do(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil, "")
	if err != nil {
		return err
	}

	var ev envelope
	if err := json.Unmarshal(body, &ev); err != nil {
		return &APIError{Code: CodeBadResponse, Message: "unparsable response body", HTTPStatus: status, Err: err}
	}
	if !bool(ev.Success) {
		return c.rejection(ctx, ev, status)
	}
	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return &APIError{Code: CodeBadResponse, Message: "unexpected response shape", HTTPStatus: status, Err: err}
		}
	}
	return nil
}

// PostResult carries the non-error outcome flags of a POST.
type PostResult struct {
	// ValidationWarning marks the documented benign case: the remote
	// store's own input validation complained even though the row was
	// written. Callers treat it as success, minus the server timestamp.
	ValidationWarning bool
}

// post issues a signed POST. The payload travels as one opaque text
// body, not form-encoded, because the endpoint redirects POSTs through
// an intermediate landing page that would drop form fields.
func (c *Client) post(ctx context.Context, action string, payload map[string]any, out any) (PostResult, error) {
	email := c.session.Email(ctx)
	if email == "" {
		return PostResult{}, &APIError{Code: CodeNotLoggedIn, Message: "no authenticated identity"}
	}

	env := c.signer.Sign(action, email)
	body := make(map[string]any, len(payload)+6)
	for k, v := range payload {
		body[k] = v
	}
	body["action"] = action
	body["appVersion"] = c.appVersion
	body["userEmail"] = email
	body["sig"] = env.Signature
	body["ts"] = env.Timestamp
	body["nonce"] = env.Nonce

	raw, err := json.Marshal(body)
	if err != nil {
		return PostResult{}, &APIError{Code: CodeBadResponse, Message: "encode request payload", Err: err}
	}

	respBody, status, err := c.do(ctx, http.MethodPost, c.endpoint, raw, "text/plain")
	if err != nil {
		return PostResult{}, err
	}
	return c.parsePostBody(ctx, respBody, status, out)
}

// do performs the HTTP exchange and classifies transport and status
// failures. Redirects follow by default, which the landing-page
// behavior depends on.
func (c *Client) do(ctx context.Context, method, target string, body []byte, contentType string) ([]byte, int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = strings.NewReader(string(body))
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, 0, &APIError{Code: CodeNetwork, Message: "build request", Err: err}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, 0, classifyTransport(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, classifyTransport(err)
	}

	if resp.StatusCode >= 500 {
		return nil, resp.StatusCode, &APIError{Code: CodeServer, Message: http.StatusText(resp.StatusCode), HTTPStatus: resp.StatusCode}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resp.StatusCode, &APIError{Code: CodeRejected, Message: http.StatusText(resp.StatusCode), HTTPStatus: resp.StatusCode}
	}
	return respBody, resp.StatusCode, nil
}

// rejection maps a success:false envelope to a structured error,
// clearing the session on authentication and authorization codes.
func (c *Client) rejection(ctx context.Context, ev envelope, status int) error {
	code := ev.Code
	if code == "" {
		code = ev.Error
	}
	switch code {
	case string(CodeAuthRequired), string(CodeAccessDenied):
		c.expireSession(ctx)
		ec := CodeAuthRequired
		if code == string(CodeAccessDenied) {
			ec = CodeAccessDenied
		}
		return &APIError{Code: ec, Message: ev.Message, HTTPStatus: status}
	}

	msg := ev.Message
	if msg == "" {
		msg = ev.Error
	}
	if msg == "" {
		msg = "request rejected"
	}
	return &APIError{Code: CodeRejected, Message: msg, HTTPStatus: status}
}

func (c *Client) expireSession(ctx context.Context) {
	c.log.Warn("session rejected by server, clearing cached identity")
	if err := c.session.Clear(ctx); err != nil {
		c.log.Error("failed to clear session cache", "error", err)
	}
}

func classifyTransport(err error) error {
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return &APIError{Code: CodeTimeout, Message: "request timed out", Err: err}
	}
	return &APIError{Code: CodeNetwork, Message: "request failed", Err: err}
}
