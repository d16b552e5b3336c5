// Package worker turns queued frequency tables into code tables.
package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"cloud.google.com/go/pubsub/v2"

	"github.com/chronos-tachyon/huffmantree"
	"github.com/chronos-tachyon/huffmantree/internal/common"
	"github.com/chronos-tachyon/huffmantree/internal/report"
)

type Application struct {
	Store          common.ObjectStore
	Publisher      common.Publisher
	Bucket         string
	ResultsTopicID string
	GCSTimeout     time.Duration
}

// HandleMessage processes one job message.  The message is Acked once a
// result has been published, including a "failed" result for a frequency
// table that is malformed or invalid.  Storage and publishing failures are
// Nacked so that Pub/Sub redelivers the job.
func (app *Application) HandleMessage(ctx context.Context, msg common.Message) {
	var job common.JobMessage
	if err := json.Unmarshal(msg.GetData(), &job); err != nil {
		slog.Error("Failed to unmarshal body from job message", "error", err)
		// redelivery cannot fix a malformed message
		msg.Ack()
		return
	}

	slog.Info("Received job", "job", job.UID)

	ctx, cancel := context.WithTimeout(ctx, app.GCSTimeout)
	defer cancel()

	freqs, err := app.downloadFrequencies(ctx, job.FreqTablePath)
	if errors.Is(err, errMalformedTable) {
		app.reject(ctx, msg, job, err)
		return
	}
	if err != nil {
		slog.Error("Failed to download frequency table", "job", job.UID, "error", err)
		msg.Nack()
		return
	}
	slog.Debug("Downloaded frequency table", "job", job.UID, "symbols", freqs.Len())

	if err := common.CheckSymbols(freqs); err != nil {
		app.reject(ctx, msg, job, err)
		return
	}
	root, err := huffmantree.BuildTree(freqs)
	if err != nil {
		app.reject(ctx, msg, job, err)
		return
	}

	table := huffmantree.ExtractCodes(root)
	if job.Canonical {
		table = table.Canonical()
	}
	slog.Debug("Built Huffman code table", "job", job.UID, "symbols", table.Len(), "max_size", table.MaxSize())

	docBytes, err := json.Marshal(report.NewDocument(table))
	if err != nil {
		slog.Error("Failed to marshal code table", "job", job.UID, "error", err)
		msg.Nack()
		return
	}

	codeTablePath := common.JobObject(job.UID, common.CodeTableObject)
	wc := app.Store.NewObjectWriter(ctx, app.Bucket, codeTablePath)
	if _, err := io.Copy(wc, bytes.NewReader(docBytes)); err != nil {
		_ = wc.Close()
		slog.Error("Failed to upload code table to GCS", "job", job.UID, "error", err)
		msg.Nack()
		return
	}
	if err := wc.Close(); err != nil {
		slog.Error("Failed to close code table stream to GCS", "job", job.UID, "error", err)
		msg.Nack()
		return
	}
	slog.Debug("Uploaded code table to GCS", "job", job.UID)

	result := common.ResultMessage{UID: job.UID, Status: common.StatusSucceeded, CodeTablePath: codeTablePath}
	if err := app.publishResult(ctx, result); err != nil {
		slog.Error("Failed to publish result", "job", job.UID, "error", err)
		msg.Nack()
		return
	}

	msg.Ack()
	slog.Info("Completed processing job", "job", job.UID)
}

// reject publishes a "failed" result for a job whose input can never
// succeed, then Acks the message.
func (app *Application) reject(ctx context.Context, msg common.Message, job common.JobMessage, cause error) {
	slog.Warn("Rejected frequency table", "job", job.UID, "error", cause)
	result := common.ResultMessage{UID: job.UID, Status: common.StatusFailed, Error: cause.Error()}
	if err := app.publishResult(ctx, result); err != nil {
		slog.Error("Failed to publish result", "job", job.UID, "error", err)
		msg.Nack()
		return
	}
	msg.Ack()
}

var errMalformedTable = errors.New("malformed frequency table")

func (app *Application) downloadFrequencies(ctx context.Context, object string) (huffmantree.FrequencyTable, error) {
	rc, err := app.Store.NewObjectReader(ctx, app.Bucket, object)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", object, err)
	}
	defer rc.Close()

	var freqs huffmantree.FrequencyTable
	if err := json.NewDecoder(rc).Decode(&freqs); err != nil {
		return nil, fmt.Errorf("decode %s: %w: %w", object, errMalformedTable, err)
	}
	return freqs, nil
}

func (app *Application) publishResult(ctx context.Context, result common.ResultMessage) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	id, err := app.Publisher.PublishMessage(ctx, app.ResultsTopicID, &pubsub.Message{Data: data})
	if err != nil {
		return err
	}
	slog.Debug("Sent result to Pub/Sub", "job", result.UID, "server_generated_message_id", id)
	return nil
}
