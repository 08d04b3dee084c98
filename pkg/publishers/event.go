package publishers

import (
	"image"
	"time"
)

// Event describes one completed fetch as published downstream.
// Bodies are not forwarded; PayloadBytes carries the size of a text body.
type Event struct {
	SessionID    string    `json:"session_id,omitempty"`
	URL          string    `json:"url"`
	Resource     string    `json:"resource"`
	Status       string    `json:"status"`
	ErrorKind    string    `json:"error_kind,omitempty"`
	Message      string    `json:"message,omitempty"`
	PayloadBytes int       `json:"payload_bytes,omitempty"`
	ImageWidth   int       `json:"image_width,omitempty"`
	ImageHeight  int       `json:"image_height,omitempty"`
	CompletedAt  time.Time `json:"completed_at"`
}

// NewEvent builds an Event from a delivered outcome. payload is the text body on
// success and the error message on failure.
func NewEvent(sessionID, url, resource, status, errorKind, payload string, img image.Image) Event {
	evt := Event{
		SessionID:   sessionID,
		URL:         url,
		Resource:    resource,
		Status:      status,
		ErrorKind:   errorKind,
		CompletedAt: time.Now().UTC(),
	}
	if errorKind != "" {
		evt.Message = payload
	} else {
		evt.PayloadBytes = len(payload)
	}
	if img != nil {
		b := img.Bounds()
		evt.ImageWidth = b.Dx()
		evt.ImageHeight = b.Dy()
	}
	return evt
}

// attributes are attached as message attributes by the queue-backed publishers.
func (e Event) attributes() map[string]string {
	attrs := map[string]string{
		"resource": e.Resource,
		"status":   e.Status,
	}
	if e.ErrorKind != "" {
		attrs["error_kind"] = e.ErrorKind
	}
	return attrs
}
