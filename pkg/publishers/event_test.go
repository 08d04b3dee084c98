package publishers

import (
	"image"
	"testing"
)

func TestNewEventForTextSuccess(t *testing.T) {
	evt := NewEvent("s1", "http://host/augments.php", "text", "OK", "", "abcdef", nil)
	if evt.PayloadBytes != 6 || evt.Message != "" {
		t.Fatalf("unexpected text event %#v", evt)
	}
	if evt.CompletedAt.IsZero() {
		t.Fatalf("CompletedAt not set")
	}
	if _, ok := evt.attributes()["error_kind"]; ok {
		t.Fatalf("success event should not carry error_kind")
	}
}

func TestNewEventForFailureKeepsMessage(t *testing.T) {
	evt := NewEvent("s1", "http://host/one.png", "image", "ER", "cache_read", "Cache read error. disk", nil)
	if evt.Message != "Cache read error. disk" || evt.PayloadBytes != 0 {
		t.Fatalf("unexpected failure event %#v", evt)
	}
	if evt.attributes()["error_kind"] != "cache_read" {
		t.Fatalf("error_kind attribute missing")
	}
}

func TestNewEventRecordsImageBounds(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 24, 12))
	evt := NewEvent("", "http://host/two.png", "image", "OK", "", "", img)
	if evt.ImageWidth != 24 || evt.ImageHeight != 12 {
		t.Fatalf("bounds = %dx%d", evt.ImageWidth, evt.ImageHeight)
	}
}
