package httpclient

import (
	"context"
	"io"
)

// Response is a minimal HTTP response contract. Body is left unread; callers must close it.
type Response interface {
	Body() io.ReadCloser
	StatusCode() int
}

// Client abstracts HTTP calls so callers can inject mocks or different transports.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
}
