package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/chronos-tachyon/huffmantree"
	"github.com/chronos-tachyon/huffmantree/internal/common"
	"github.com/chronos-tachyon/huffmantree/internal/report"
)

// --- Mocks ---

// mockStore satisfies common.ObjectStore
type mockStore struct {
	mu    sync.Mutex
	files map[string]*bytes.Buffer
}

func (c *mockStore) NewObjectWriter(ctx context.Context, bucket, object string) common.ObjectWriter {
	return &mockWriter{objectPath: object, buffer: new(bytes.Buffer), client: c}
}

func (c *mockStore) NewObjectReader(ctx context.Context, bucket, object string) (common.ObjectReader, error) {
	return nil, errors.New("not implemented")
}

func (c *mockStore) GetObjectContent(object string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	buf, ok := c.files[object]
	if !ok {
		return nil, false
	}
	return buf.Bytes(), true
}

// mockWriter satisfies io.WriteCloser
type mockWriter struct {
	objectPath string
	buffer     *bytes.Buffer
	client     *mockStore
}

func (w *mockWriter) Write(p []byte) (n int, err error) {
	return w.buffer.Write(p)
}

// Close "commits" the buffer to the mock client's file map
func (w *mockWriter) Close() error {
	w.client.mu.Lock()
	defer w.client.mu.Unlock()
	w.client.files[w.objectPath] = w.buffer
	return nil
}

// mockPublisher satisfies common.Publisher
type mockPublisher struct {
	mu       sync.Mutex
	messages map[string][]*pubsub.Message
	fail     bool
}

func (c *mockPublisher) PublishMessage(ctx context.Context, topicID string, msg *pubsub.Message) (string, error) {
	if c.fail {
		return "", errors.New("mock publish error")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages[topicID] = append(c.messages[topicID], msg)
	return "mock-message-id-" + uuid.NewString(), nil
}

func (c *mockPublisher) GetMessages(topicID string) []*pubsub.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.messages[topicID]
}

// --- Test Setup ---

const (
	testBucket          = "test-bucket"
	testJobsTopic       = "jobs-topic"
	testSmallUploadSize = 1024
)

func setupTestApp(t *testing.T) (*Application, *mockStore, *mockPublisher) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := &mockStore{files: make(map[string]*bytes.Buffer)}
	publisher := &mockPublisher{messages: make(map[string][]*pubsub.Message)}
	app := &Application{
		Store:         store,
		Publisher:     publisher,
		Bucket:        testBucket,
		JobsTopicID:   testJobsTopic,
		MaxUploadSize: testSmallUploadSize,
		GCSTimeout:    5 * time.Second,
		CountWorkers:  2,
	}
	return app, store, publisher
}

func createTestMultipartRequest(t *testing.T, fieldName, fileName, fileContent string) *http.Request {
	t.Helper()

	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(fieldName, fileName)
	if err != nil {
		t.Fatalf("Failed to create form file: %v", err)
	}
	if _, err := io.Copy(part, strings.NewReader(fileContent)); err != nil {
		t.Fatalf("Failed to write file content to form: %v", err)
	}
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/v1/jobs", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func postJSON(t *testing.T, r http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

// --- Tests ---

func TestHealthz(t *testing.T) {
	app, _, _ := setupTestApp(t)
	rr := httptest.NewRecorder()
	app.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
}

func TestCodesHandler(t *testing.T) {
	app, _, _ := setupTestApp(t)
	r := app.Router()

	type testRow struct {
		name           string
		body           string
		expectStatus   int
		expectSymbols  int
		expectWeighted int64
	}

	testData := [...]testRow{
		{
			name:           "frequencies",
			body:           `{"frequencies": {"97": 5, "98": 9, "99": 12, "100": 13, "101": 16, "102": 45}}`,
			expectStatus:   http.StatusOK,
			expectSymbols:  6,
			expectWeighted: 224,
		},
		{
			name:           "canonical",
			body:           `{"frequencies": {"97": 5, "98": 9, "99": 12, "100": 13, "101": 16, "102": 45}, "canonical": true}`,
			expectStatus:   http.StatusOK,
			expectSymbols:  6,
			expectWeighted: 224,
		},
		{
			name:           "text",
			body:           `{"text": "aaaaabbc"}`,
			expectStatus:   http.StatusOK,
			expectSymbols:  3,
			expectWeighted: 11,
		},
		{
			name:           "single",
			body:           `{"frequencies": {"65": 5}}`,
			expectStatus:   http.StatusOK,
			expectSymbols:  1,
			expectWeighted: 5,
		},
		{
			name:          "empty",
			body:          `{"frequencies": {}}`,
			expectStatus:  http.StatusOK,
			expectSymbols: 0,
		},
		{
			name:         "negative",
			body:         `{"frequencies": {"97": -1}}`,
			expectStatus: http.StatusBadRequest,
		},
		{
			name:         "negative-symbol",
			body:         `{"frequencies": {"-1": 5, "97": 3}}`,
			expectStatus: http.StatusBadRequest,
		},
		{
			name:         "malformed",
			body:         `{"frequencies": `,
			expectStatus: http.StatusBadRequest,
		},
		{
			name:         "too-large",
			body:         `{"text": "` + strings.Repeat("x", 2*testSmallUploadSize) + `"}`,
			expectStatus: http.StatusRequestEntityTooLarge,
		},
	}
	for _, row := range testData {
		t.Run(row.name, func(t *testing.T) {
			rr := postJSON(t, r, "/v1/codes", row.body)
			if rr.Code != row.expectStatus {
				t.Fatalf("expected status %d, got %d: %s", row.expectStatus, rr.Code, rr.Body.String())
			}
			if rr.Code != http.StatusOK {
				var resp errorResponse
				if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil || resp.Error == "" {
					t.Errorf("expected a JSON error body, got %s", rr.Body.String())
				}
				return
			}

			var doc report.Document
			if err := json.Unmarshal(rr.Body.Bytes(), &doc); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if doc.Symbols != row.expectSymbols || len(doc.Codes) != row.expectSymbols {
				t.Errorf("expected %d symbols, got %d (%d rows)", row.expectSymbols, doc.Symbols, len(doc.Codes))
			}
			if doc.WeightedLength != row.expectWeighted {
				t.Errorf("expected weighted length %d, got %d", row.expectWeighted, doc.WeightedLength)
			}
		})
	}
}

func TestJobsHandler_Success(t *testing.T) {
	app, store, publisher := setupTestApp(t)
	content := "this is a test for huffman codes"

	rr := httptest.NewRecorder()
	app.Router().ServeHTTP(rr, createTestMultipartRequest(t, "file", "test.txt", content))
	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected status %d, got %d: %s", http.StatusAccepted, rr.Code, rr.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	jobID := resp["job_id"]
	if _, err := uuid.Parse(jobID); err != nil {
		t.Fatalf("job_id %q is not a UUID: %v", jobID, err)
	}

	original, ok := store.GetObjectContent(common.OriginalObject(jobID, "test.txt"))
	if !ok || string(original) != content {
		t.Errorf("original file not stored correctly: %q (found=%v)", original, ok)
	}

	rawFreqs, ok := store.GetObjectContent(common.JobObject(jobID, common.FreqTableObject))
	if !ok {
		t.Fatalf("frequency table not stored")
	}
	var freqs huffmantree.FrequencyTable
	if err := json.Unmarshal(rawFreqs, &freqs); err != nil {
		t.Fatalf("Failed to decode frequency table: %v", err)
	}
	expectFreqs := huffmantree.CountRunes(content)
	if len(freqs) != len(expectFreqs) || freqs[' '] != expectFreqs[' '] || freqs['t'] != expectFreqs['t'] {
		t.Errorf("wrong frequency table:\n\texpect: %v\n\tactual: %v", expectFreqs, freqs)
	}

	messages := publisher.GetMessages(testJobsTopic)
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}
	var msg common.JobMessage
	if err := json.Unmarshal(messages[0].Data, &msg); err != nil {
		t.Fatalf("Failed to decode message: %v", err)
	}
	expectMsg := common.JobMessage{
		UID:              jobID,
		OriginalFilePath: common.OriginalObject(jobID, "test.txt"),
		FreqTablePath:    common.JobObject(jobID, common.FreqTableObject),
	}
	if msg != expectMsg {
		t.Errorf("wrong message:\n\texpect: %+v\n\tactual: %+v", expectMsg, msg)
	}
}

func TestJobsHandler_TooLarge(t *testing.T) {
	app, _, publisher := setupTestApp(t)
	content := strings.Repeat("x", 2*testSmallUploadSize)

	rr := httptest.NewRecorder()
	app.Router().ServeHTTP(rr, createTestMultipartRequest(t, "file", "big.txt", content))
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected status %d, got %d", http.StatusRequestEntityTooLarge, rr.Code)
	}
	if n := len(publisher.GetMessages(testJobsTopic)); n != 0 {
		t.Errorf("expected no messages, got %d", n)
	}
}

func TestJobsHandler_MissingFile(t *testing.T) {
	app, _, _ := setupTestApp(t)

	rr := httptest.NewRecorder()
	app.Router().ServeHTTP(rr, createTestMultipartRequest(t, "wrong_field", "test.txt", "abc"))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
}

func TestJobsHandler_PublishFailure(t *testing.T) {
	app, _, publisher := setupTestApp(t)
	publisher.fail = true

	rr := httptest.NewRecorder()
	app.Router().ServeHTTP(rr, createTestMultipartRequest(t, "file", "test.txt", "abc"))
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("expected status %d, got %d", http.StatusInternalServerError, rr.Code)
	}
}
