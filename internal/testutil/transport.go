package testutil

import (
	"bytes"
	"io"
	"net/http"
	"sync"
)

// RoundTripFunc adapts a function to http.RoundTripper so tests can
// script remote responses without a network.
type RoundTripFunc func(*http.Request) (*http.Response, error)

// RoundTrip implements http.RoundTripper.
func (f RoundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Response builds an *http.Response with the given status and body.
func Response(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
		Header:     make(http.Header),
	}
}

// TimeoutError satisfies net.Error with Timeout() == true, mimicking a
// client-side deadline expiry.
type TimeoutError struct{}

func (TimeoutError) Error() string   { return "request timed out" }
func (TimeoutError) Timeout() bool   { return true }
func (TimeoutError) Temporary() bool { return true }

// ScriptedTransport replays a fixed sequence of outcomes, one per
// request, and records the requests it saw.
type ScriptedTransport struct {
	mu       sync.Mutex
	Outcomes []Outcome
	Requests []*http.Request
	// Bodies holds the raw body of each POST request, captured before
	// the handler consumes it.
	Bodies []string
}

// Outcome is one scripted response or transport error.
type Outcome struct {
	Status int
	Body   string
	Err    error
}

// RoundTrip implements http.RoundTripper.
func (s *ScriptedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Requests = append(s.Requests, req)
	if req.Body != nil {
		raw, _ := io.ReadAll(req.Body)
		s.Bodies = append(s.Bodies, string(raw))
	} else {
		s.Bodies = append(s.Bodies, "")
	}

	if len(s.Outcomes) == 0 {
		return Response(http.StatusOK, `{"success":true}`), nil
	}
	next := s.Outcomes[0]
	s.Outcomes = s.Outcomes[1:]
	if next.Err != nil {
		return nil, next.Err
	}
	return Response(next.Status, next.Body), nil
}

// Calls returns how many requests the transport has served.
func (s *ScriptedTransport) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Requests)
}
