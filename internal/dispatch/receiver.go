package dispatch

import (
	"image"

	"github.com/arvos-app/arvos-fetch/internal/domain"
)

// Resource selects which fetcher handles a submission.
type Resource int

const (
	Text Resource = iota + 1
	Image
)

func (r Resource) String() string {
	switch r {
	case Text:
		return "text"
	case Image:
		return "image"
	default:
		return "unknown"
	}
}

// Receiver gets exactly one callback per submitted fetch.
// status is "OK" or "ER"; payload is the text body, empty for a successful image,
// or the error message. img is nil unless an image fetch succeeded.
type Receiver interface {
	OnResult(url, status, payload string, img image.Image)
}

// ReceiverFunc adapts a function to Receiver.
type ReceiverFunc func(url, status, payload string, img image.Image)

func (f ReceiverFunc) OnResult(url, status, payload string, img image.Image) {
	f(url, status, payload, img)
}

// Result is the structured form of a delivered outcome.
type Result struct {
	URL      string
	Resource Resource
	Status   string
	Payload  string
	Image    image.Image
	// ErrKind is zero on success.
	ErrKind domain.Kind
}

// OK reports whether the fetch succeeded.
func (r Result) OK() bool { return r.Status == domain.StatusOK }

// ResultReceiver is implemented by receivers that want the structured Result instead
// of the legacy four-argument callback. Delivery prefers it when present.
type ResultReceiver interface {
	OnFetchResult(res Result)
}

func textResult(url string, o domain.Outcome[string]) Result {
	return splitResult(url, Text, o.Encode(), o.Err())
}

func imageResult(url string, o domain.Outcome[image.Image]) Result {
	res := splitResult(url, Image, o.Encode(), o.Err())
	if res.OK() {
		res.Image = o.Value()
	}
	return res
}

func failureResult(url string, r Resource, ferr *domain.FetchError) Result {
	return splitResult(url, r, domain.Failure[string](ferr).Encode(), ferr)
}

// splitResult cuts the encoded outcome into tag and payload, the form receivers get.
func splitResult(url string, r Resource, encoded string, ferr *domain.FetchError) Result {
	status, payload, err := domain.Decode(encoded)
	if err != nil {
		ferr = domain.Exception(err)
		status, payload = domain.StatusError, ferr.Message
	}
	res := Result{URL: url, Resource: r, Status: status, Payload: payload}
	if ferr != nil {
		res.ErrKind = ferr.Kind
	}
	return res
}

func deliver(r Receiver, res Result) {
	if rr, ok := r.(ResultReceiver); ok {
		rr.OnFetchResult(res)
		return
	}
	r.OnResult(res.URL, res.Status, res.Payload, res.Image)
}
