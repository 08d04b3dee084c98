package publishers

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"cloud.google.com/go/pubsub/pstest"
)

func TestPubSubPublisherPublishes(t *testing.T) {
	// In-memory Pub/Sub emulator.
	server := pstest.NewServer()
	defer server.Close()

	ctx := context.Background()
	pub, err := newPubSubPublisher(ctx, PublisherConfig{
		ID:   "ps",
		Type: TypePubSub,
		PubSub: &PubSubPublisherConfig{
			ProjectID: "test-project",
			Topic:     "fetches",
			Endpoint:  server.Addr,
		},
	}, nil)
	if err != nil {
		t.Fatalf("newPubSubPublisher: %v", err)
	}
	ps := pub.(*pubsubPublisher)
	defer ps.Close()

	if _, err := ps.client.CreateTopic(ctx, "fetches"); err != nil {
		t.Fatalf("create topic: %v", err)
	}

	evt := Event{URL: "http://host/augment1.json", Resource: "text", Status: "OK", PayloadBytes: 42}
	if err := pub.Publish(ctx, evt); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	msgs := server.Messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if got := msgs[0].Attributes["status"]; got != "OK" {
		t.Fatalf("status attribute = %q", got)
	}
	var decoded Event
	if err := json.Unmarshal(msgs[0].Data, &decoded); err != nil {
		t.Fatalf("decode message: %v", err)
	}
	if decoded.URL != evt.URL || decoded.PayloadBytes != 42 {
		t.Fatalf("unexpected payload %#v", decoded)
	}
}

func TestPubSubPublisherFailsForMissingTopic(t *testing.T) {
	server := pstest.NewServer()
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	pub, err := newPubSubPublisher(ctx, PublisherConfig{
		ID:     "ps",
		Type:   TypePubSub,
		PubSub: &PubSubPublisherConfig{ProjectID: "p", Topic: "absent", Endpoint: server.Addr},
	}, nil)
	if err != nil {
		t.Fatalf("newPubSubPublisher: %v", err)
	}
	defer pub.(*pubsubPublisher).Close()

	if err := pub.Publish(ctx, Event{URL: "u"}); err == nil {
		t.Fatalf("expected publish to a missing topic to fail")
	}
}
