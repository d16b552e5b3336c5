// Package common holds the cloud client abstractions and message schemas
// shared by huffserver and huffworker.
package common

import (
	"context"
	"io"

	"cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/storage"
)

// ObjectReader reads the contents of a stored object.
type ObjectReader interface {
	io.ReadCloser
}

// ObjectWriter writes a stored object.  The object is committed by Close.
type ObjectWriter interface {
	io.WriteCloser
}

// ObjectStore is the subset of Cloud Storage used by the services.
type ObjectStore interface {
	NewObjectWriter(ctx context.Context, bucket, object string) ObjectWriter
	NewObjectReader(ctx context.Context, bucket, object string) (ObjectReader, error)
}

// Publisher publishes a message to a Pub/Sub topic and returns the
// server-generated message ID.
type Publisher interface {
	PublishMessage(ctx context.Context, topicID string, msg *pubsub.Message) (string, error)
}

// Message abstracts the Pub/Sub message for testing.
type Message interface {
	Ack()
	Nack()
	GetData() []byte
}

// GCSStore is an ObjectStore backed by Cloud Storage.
type GCSStore struct {
	Client *storage.Client
}

// NewObjectWriter returns a writer for bucket/object with a content type
// derived from the object name.
func (c *GCSStore) NewObjectWriter(ctx context.Context, bucket, object string) ObjectWriter {
	w := c.Client.Bucket(bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentTypeFor(object)
	return w
}

// NewObjectReader opens bucket/object for reading.
func (c *GCSStore) NewObjectReader(ctx context.Context, bucket, object string) (ObjectReader, error) {
	return c.Client.Bucket(bucket).Object(object).NewReader(ctx)
}

// PubSubPublisher is a Publisher backed by a Pub/Sub client.
type PubSubPublisher struct {
	Client *pubsub.Client
}

// PublishMessage publishes msg to topicID and waits for the server to
// acknowledge it.
func (c *PubSubPublisher) PublishMessage(ctx context.Context, topicID string, msg *pubsub.Message) (string, error) {
	publisher := c.Client.Publisher(topicID)
	result := publisher.Publish(ctx, msg)
	return result.Get(ctx)
}

// PubSubMessage wraps the concrete pubsub.Message.
type PubSubMessage struct {
	Msg *pubsub.Message
}

func (r *PubSubMessage) Ack() {
	r.Msg.Ack()
}

func (r *PubSubMessage) Nack() {
	r.Msg.Nack()
}

func (r *PubSubMessage) GetData() []byte {
	return r.Msg.Data
}

var (
	_ ObjectStore = (*GCSStore)(nil)
	_ Publisher   = (*PubSubPublisher)(nil)
	_ Message     = (*PubSubMessage)(nil)
)
