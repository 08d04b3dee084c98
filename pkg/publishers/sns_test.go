package publishers

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/arvos-app/arvos-fetch/internal/logger"
)

type fakeSNSClient struct {
	input *sns.PublishInput
	err   error
}

func (f *fakeSNSClient) Publish(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("msg-123")}, nil
}

func TestSNSPublisherPublishSuccess(t *testing.T) {
	client := &fakeSNSClient{}
	pub := &snsPublisher{
		id:       "topic",
		topicARN: "arn:aws:sns:::topic",
		client:   client,
		log:      logger.NopLogger{},
	}

	err := pub.Publish(context.Background(), Event{URL: "http://host/one.png", Resource: "image", Status: "OK", ImageWidth: 16})
	if err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if got := aws.ToString(client.input.TopicArn); got != "arn:aws:sns:::topic" {
		t.Fatalf("TopicArn = %s", got)
	}
	attr, ok := client.input.MessageAttributes["resource"]
	if !ok || aws.ToString(attr.StringValue) != "image" {
		t.Fatalf("resource attribute missing or wrong: %#v", attr)
	}
	if msg := aws.ToString(client.input.Message); !strings.Contains(msg, `"image_width":16`) {
		t.Fatalf("Message missing image_width: %s", msg)
	}
}

func TestSNSPublisherPublishError(t *testing.T) {
	pub := &snsPublisher{
		id:       "topic",
		topicARN: "arn:aws:sns:::topic",
		client:   &fakeSNSClient{err: errors.New("boom")},
		log:      logger.NopLogger{},
	}

	if err := pub.Publish(context.Background(), Event{URL: "u"}); err == nil {
		t.Fatalf("expected error from Publish")
	}
}

func TestNewSNSPublisherWithStaticCredentials(t *testing.T) {
	pub, err := newSNSPublisher(context.Background(), PublisherConfig{
		ID:   "topic",
		Type: TypeSNS,
		SNS: &SNSPublisherConfig{
			TopicARN: "arn:aws:sns:us-east-1:000000000000:fetches",
			AWSAccess: AWSAccess{
				Region:          "us-east-1",
				Endpoint:        "http://localhost:4566",
				AccessKeyID:     "test",
				SecretAccessKey: "test",
			},
		},
	}, nil)
	if err != nil {
		t.Fatalf("newSNSPublisher: %v", err)
	}
	if pub.Type() != TypeSNS || pub.ID() != "topic" {
		t.Fatalf("unexpected publisher identity %s/%s", pub.Type(), pub.ID())
	}
}
