// Package server exposes Huffman code construction over HTTP.
//
// POST /v1/codes builds a code table synchronously from a frequency table or
// a piece of text.  POST /v1/jobs accepts a file upload, stores it together
// with its frequency table in Cloud Storage, and queues a job for huffworker.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/chronos-tachyon/huffmantree"
	"github.com/chronos-tachyon/huffmantree/internal/common"
	"github.com/chronos-tachyon/huffmantree/internal/report"
)

type Application struct {
	Store         common.ObjectStore
	Publisher     common.Publisher
	Bucket        string
	JobsTopicID   string
	MaxUploadSize int64
	GCSTimeout    time.Duration
	CountWorkers  int
}

// CodesRequest is the body of POST /v1/codes.  Exactly one of Frequencies
// and Text should be set; Text wins if both are.
type CodesRequest struct {
	Frequencies huffmantree.FrequencyTable `json:"frequencies"`
	Text        *string                    `json:"text"`
	Canonical   bool                       `json:"canonical"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(c *gin.Context, text string, statusCode int) {
	c.AbortWithStatusJSON(statusCode, errorResponse{Error: text})
}

// Router returns a gin engine with every route registered.
func (app *Application) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	v1 := r.Group("/v1")
	v1.POST("/codes", app.codesHandler)
	v1.POST("/jobs", app.jobsHandler)
	return r
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("Handled request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"elapsed", time.Since(start))
	}
}

func (app *Application) codesHandler(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, app.MaxUploadSize)

	var req CodesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if isBodyTooLarge(err) {
			writeError(c, "Request body exceeds size limit", http.StatusRequestEntityTooLarge)
			return
		}
		writeError(c, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	freqs := req.Frequencies
	if req.Text != nil {
		counted, err := huffmantree.CountRunesParallel(c.Request.Context(), []byte(*req.Text), app.CountWorkers)
		if err != nil {
			slog.Error("Failed to count frequencies", "error", err)
			writeError(c, "Internal server error", http.StatusInternalServerError)
			return
		}
		freqs = counted
	}
	if err := common.CheckSymbols(freqs); err != nil {
		writeError(c, err.Error(), http.StatusBadRequest)
		return
	}

	root, err := huffmantree.BuildTree(freqs)
	if err != nil {
		if errors.Is(err, huffmantree.ErrInvalidFrequency) || errors.Is(err, huffmantree.ErrWeightOverflow) {
			writeError(c, err.Error(), http.StatusBadRequest)
			return
		}
		slog.Error("Failed to build Huffman tree", "error", err)
		writeError(c, "Internal server error", http.StatusInternalServerError)
		return
	}

	table := huffmantree.ExtractCodes(root)
	if req.Canonical {
		table = table.Canonical()
	}
	c.JSON(http.StatusOK, report.NewDocument(table))
}

func (app *Application) jobsHandler(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, app.MaxUploadSize)

	header, err := c.FormFile("file")
	if err != nil {
		slog.Error("Failed to get file from form", "error", err)
		if isBodyTooLarge(err) {
			writeError(c, "File exceeds size limit", http.StatusRequestEntityTooLarge)
			return
		}
		writeError(c, "Failed to read file: "+err.Error(), http.StatusBadRequest)
		return
	}
	file, err := header.Open()
	if err != nil {
		writeError(c, "Failed to read file: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	jobID := uuid.New().String()
	canonical := c.PostForm("canonical") == "true"
	slog.Info("Processing a request for a code table", "job", jobID, "file", header.Filename)

	ctx, cancel := context.WithTimeout(c.Request.Context(), app.GCSTimeout)
	defer cancel()

	// count runes while streaming the original content to GCS
	counter := huffmantree.NewRuneCounter()
	originalFilePath := common.OriginalObject(jobID, header.Filename)
	if err := app.upload(ctx, originalFilePath, io.TeeReader(file, counter)); err != nil {
		slog.Error("Failed to stream data to GCS", "job", jobID, "error", err)
		writeError(c, "Internal server error", http.StatusInternalServerError)
		return
	}
	slog.Debug("Uploaded original file to GCS", "job", jobID, "object", originalFilePath)

	freqTableBytes, err := json.Marshal(counter.Table())
	if err != nil {
		slog.Error("Failed to marshal frequency table", "job", jobID, "error", err)
		writeError(c, "Internal server error", http.StatusInternalServerError)
		return
	}
	freqTablePath := common.JobObject(jobID, common.FreqTableObject)
	if err := app.upload(ctx, freqTablePath, bytes.NewReader(freqTableBytes)); err != nil {
		slog.Error("Failed to stream frequency table to GCS", "job", jobID, "error", err)
		writeError(c, "Internal server error", http.StatusInternalServerError)
		return
	}
	slog.Debug("Uploaded frequency table to GCS", "job", jobID)

	messageBytes, err := json.Marshal(common.JobMessage{
		UID:              jobID,
		OriginalFilePath: originalFilePath,
		FreqTablePath:    freqTablePath,
		Canonical:        canonical,
	})
	if err != nil {
		slog.Error("Failed to marshal MQ message", "job", jobID, "error", err)
		writeError(c, "Internal server error", http.StatusInternalServerError)
		return
	}
	messageID, err := app.Publisher.PublishMessage(ctx, app.JobsTopicID, &pubsub.Message{Data: messageBytes})
	if err != nil {
		slog.Error("Failed to send MQ message", "job", jobID, "error", err)
		writeError(c, "Internal server error", http.StatusInternalServerError)
		return
	}
	slog.Debug("Sent message to Pub/Sub", "job", jobID, "server_generated_message_id", messageID)

	c.JSON(http.StatusAccepted, gin.H{"job_id": jobID})
}

// isBodyTooLarge reports whether err came from an http.MaxBytesReader limit.
// Some parsers flatten the error to its message.
func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large")
}

func (app *Application) upload(ctx context.Context, object string, r io.Reader) error {
	wc := app.Store.NewObjectWriter(ctx, app.Bucket, object)
	if _, err := io.Copy(wc, r); err != nil {
		_ = wc.Close()
		return fmt.Errorf("copy to %s: %w", object, err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("close %s: %w", object, err)
	}
	return nil
}
