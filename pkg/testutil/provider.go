package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"
)

// Response is one canned provider reply.
type Response struct {
	Status int
	Body   string
	// Delay holds the reply back, or until the client goes away.
	Delay time.Duration
}

// OK wraps body in a 200 reply.
func OK(body string) Response {
	return Response{Status: http.StatusOK, Body: body}
}

// RecordedRequest is what the fake provider saw.
type RecordedRequest struct {
	Path   string
	Query  url.Values
	Header http.Header
}

// Provider is a fake Amap Web Service backed by httptest. Each path replays
// its responses in order and repeats the last one.
type Provider struct {
	*httptest.Server

	mu        sync.Mutex
	responses map[string][]Response
	served    map[string]int
	requests  []RecordedRequest
}

// NewProvider starts a fake provider that is closed when t finishes.
func NewProvider(t testing.TB) *Provider {
	t.Helper()

	p := &Provider{
		responses: make(map[string][]Response),
		served:    make(map[string]int),
	}
	p.Server = httptest.NewServer(http.HandlerFunc(p.serve))
	t.Cleanup(p.Close)
	return p
}

// Reply sets the responses for path.
func (p *Provider) Reply(path string, responses ...Response) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.responses[path] = responses
	p.served[path] = 0
}

// Requests returns a copy of the recorded requests.
func (p *Provider) Requests() []RecordedRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]RecordedRequest, len(p.requests))
	copy(out, p.requests)
	return out
}

// Count returns how many requests hit path.
func (p *Provider) Count(path string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, r := range p.requests {
		if r.Path == path {
			n++
		}
	}
	return n
}

func (p *Provider) serve(w http.ResponseWriter, r *http.Request) {
	_, _ = io.Copy(io.Discard, r.Body)

	p.mu.Lock()
	p.requests = append(p.requests, RecordedRequest{
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
	})
	replies := p.responses[r.URL.Path]
	var resp Response
	if len(replies) > 0 {
		i := p.served[r.URL.Path]
		if i >= len(replies) {
			i = len(replies) - 1
		}
		resp = replies[i]
		p.served[r.URL.Path]++
	}
	p.mu.Unlock()

	if len(replies) == 0 {
		http.NotFound(w, r)
		return
	}
	if resp.Delay > 0 {
		select {
		case <-time.After(resp.Delay):
		case <-r.Context().Done():
			return
		}
	}

	w.Header().Set("Content-Type", "application/json;charset=UTF-8")
	w.WriteHeader(resp.Status)
	_, _ = io.WriteString(w, resp.Body)
}
