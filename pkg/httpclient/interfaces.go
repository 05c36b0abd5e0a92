package httpclient

import "context"

// Request describes a single outbound call.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Query   map[string]string
}

// Response is a minimal HTTP response contract.
type Response interface {
	Body() []byte
	StatusCode() int
	Header(name string) string
}

// Client abstracts HTTP calls so callers can inject mocks or different transports.
// Close releases whatever connections the client holds; the client must not be used afterwards.
type Client interface {
	Do(ctx context.Context, req Request) (Response, error)
	Close() error
}
