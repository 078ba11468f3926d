package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zynoxlab/zynox-cloud/internal/common"
	"github.com/zynoxlab/zynox-cloud/internal/cryptox"
	"github.com/zynoxlab/zynox-cloud/internal/logging"
	"github.com/zynoxlab/zynox-cloud/internal/server/memories"
	"github.com/zynoxlab/zynox-cloud/internal/server/repositories/repomanager"
	"github.com/zynoxlab/zynox-cloud/internal/server/shares"
)

const testAPIKey = "test-demo-key"

// fakeObjectStore keeps uploaded documents in memory so the full HTTP
// stack can run without S3.
type fakeObjectStore struct {
	objects map[string][]byte
}

func (f *fakeObjectStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.objects[key] = data
	return nil
}

func (f *fakeObjectStore) Get(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, 0, echo.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), int64(len(data)), nil
}

func (f *fakeObjectStore) Delete(ctx context.Context, key string) error {
	delete(f.objects, key)
	return nil
}

func (f *fakeObjectStore) PresignGet(ctx context.Context, key string, expires time.Duration) (string, error) {
	return "https://signed.example/" + key, nil
}

// newTestServer wires a real sqlite database, migrations, cipher and
// services behind the echo routes.
func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()

	db, err := repomanager.Open(repomanager.DriverSQLite, filepath.Join(t.TempDir(), "zynox.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rm, err := repomanager.New(repomanager.DriverSQLite)
	require.NoError(t, err)
	require.NoError(t, rm.RunMigrations(context.Background(), db))

	key := make([]byte, cryptox.KeySize)
	for i := range key {
		key[i] = byte(i)
	}
	cipher, err := cryptox.NewCipher(key)
	require.NoError(t, err)

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ms := memories.NewService(db, rm, cipher, logger)
	ss := shares.NewService(db, rm, &fakeObjectStore{objects: map[string][]byte{}}, 15*time.Minute, logger)

	srv := NewServer(":0", testAPIKey, ms, ss, logger)
	return srv.routes()
}

func doRequest(e *echo.Echo, method, path, apiKey string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	if apiKey != "" {
		req.Header.Set("X-Api-Key", apiKey)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func doJSON(e *echo.Echo, method, path, apiKey string, payload any) *httptest.ResponseRecorder {
	var body io.Reader
	if payload != nil {
		b, _ := json.Marshal(payload)
		body = bytes.NewReader(b)
	}
	return doRequest(e, method, path, apiKey, body, echo.MIMEApplicationJSON)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestPing_Public(t *testing.T) {
	e := newTestServer(t)

	rec := doRequest(e, http.MethodGet, "/ping", "", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Contains(t, body["message"], "alive")
}

func TestLanding_Public(t *testing.T) {
	e := newTestServer(t)

	rec := doRequest(e, http.MethodGet, "/", "", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Zynox Cloud Storage")
}

func TestAPIKeyRequired(t *testing.T) {
	e := newTestServer(t)

	for _, tc := range []struct {
		name string
		key  string
	}{
		{"missing", ""},
		{"wrong", "nope"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(e, http.MethodGet, "/v1/list/alice", tc.key, nil)
			require.Equal(t, http.StatusUnauthorized, rec.Code)
			body := decodeBody(t, rec)
			assert.Equal(t, "Invalid API key", body["detail"])
		})
	}
}

func TestSaveListDownloadDelete(t *testing.T) {
	e := newTestServer(t)

	// save
	rec := doJSON(e, http.MethodPost, "/v1/save", testAPIKey, map[string]any{
		"owner_id": "alice",
		"key":      "diary",
		"tags":     []string{"personal"},
		"data":     "today was a great day",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	saved := decodeBody(t, rec)
	assert.Equal(t, "ok", saved["status"])
	id, _ := saved["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, []any{"personal", "happy"}, saved["tags"])

	// list
	rec = doJSON(e, http.MethodGet, "/v1/list/alice", testAPIKey, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	listed := decodeBody(t, rec)
	items, _ := listed["items"].([]any)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, id, item["id"])
	assert.Equal(t, "diary", item["key"])
	assert.Equal(t, float64(1), item["version"])
	_, hasBlob := item["enc_blob"]
	assert.False(t, hasBlob)
	_, err := time.Parse(time.RFC3339, item["created_at"].(string))
	assert.NoError(t, err)

	// download
	rec = doJSON(e, http.MethodGet, "/v1/download/"+id, testAPIKey, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	downloaded := decodeBody(t, rec)
	assert.Equal(t, "today was a great day", downloaded["data"])

	// delete
	rec = doJSON(e, http.MethodDelete, "/v1/delete/"+id, testAPIKey, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	deleted := decodeBody(t, rec)
	assert.Equal(t, id, deleted["deleted"])

	// download after delete
	rec = doJSON(e, http.MethodGet, "/v1/download/"+id, testAPIKey, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not found", decodeBody(t, rec)["detail"])

	// delete again still reports the id
	rec = doJSON(e, http.MethodDelete, "/v1/delete/"+id, testAPIKey, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, decodeBody(t, rec)["deleted"])
}

func TestWriteError_StoreUnavailable(t *testing.T) {
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	srv := NewServer(":0", testAPIKey, nil, nil, logger)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/list/alice", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := srv.writeError(c, fmt.Errorf("list memories: %w", common.ErrorStoreUnavailable))
	require.NoError(t, err)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "Store unavailable", decodeBody(t, rec)["detail"])
}

func TestSave_MissingOwner(t *testing.T) {
	e := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/v1/save", testAPIKey, map[string]any{"data": "x"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuery(t *testing.T) {
	e := newTestServer(t)

	save := func(key, data string) {
		rec := doJSON(e, http.MethodPost, "/v1/save", testAPIKey, map[string]any{
			"owner_id": "alice", "key": key, "data": data,
		})
		require.Equal(t, http.StatusOK, rec.Code)
	}
	save("one", "feeling sad tonight")
	save("two", "notes about the Ocean")
	save("three", "neutral text")

	// emotion OR keyword
	rec := doJSON(e, http.MethodPost, "/v1/query/alice", testAPIKey, map[string]any{
		"emotion": "sad", "keyword": "ocean",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	results, _ := decodeBody(t, rec)["results"].([]any)
	require.Len(t, results, 2)
	first := results[0].(map[string]any)
	assert.Equal(t, "one", first["key"])
	assert.Equal(t, "feeling sad tonight", first["text"])

	// no filters at all
	rec = doJSON(e, http.MethodPost, "/v1/query/alice", testAPIKey, map[string]any{})
	require.Equal(t, http.StatusOK, rec.Code)
	results, _ = decodeBody(t, rec)["results"].([]any)
	assert.Empty(t, results)

	// other owners never leak
	rec = doJSON(e, http.MethodPost, "/v1/query/bob", testAPIKey, map[string]any{"keyword": "sad"})
	require.Equal(t, http.StatusOK, rec.Code)
	results, _ = decodeBody(t, rec)["results"].([]any)
	assert.Empty(t, results)
}

const samplePDF = "%PDF-1.7\nshared document body\n%%EOF"

func uploadPDF(t *testing.T, e *echo.Echo, owner, name, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("owner_id", owner))
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = io.Copy(fw, strings.NewReader(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	return doRequest(e, http.MethodPost, "/v1/share/upload", testAPIKey, &buf, mw.FormDataContentType())
}

func TestShareLifecycle(t *testing.T) {
	e := newTestServer(t)

	// upload
	rec := uploadPDF(t, e, "alice", "report.pdf", samplePDF)
	require.Equal(t, http.StatusOK, rec.Code)
	uploaded := decodeBody(t, rec)
	id, _ := uploaded["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, "report.pdf", uploaded["name"])
	assert.Equal(t, float64(len(samplePDF)), uploaded["size"])

	// list
	rec = doJSON(e, http.MethodGet, "/v1/share/list/alice", testAPIKey, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	items, _ := decodeBody(t, rec)["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "report.pdf", items[0].(map[string]any)["name"])

	// download streams the original bytes
	rec = doRequest(e, http.MethodGet, "/v1/share/"+id, testAPIKey, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, samplePDF, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "report.pdf")

	// presigned link
	rec = doJSON(e, http.MethodGet, "/v1/share/"+id+"/link", testAPIKey, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	url, _ := decodeBody(t, rec)["url"].(string)
	assert.True(t, strings.HasPrefix(url, "https://signed.example/shares/"))

	// delete
	rec = doJSON(e, http.MethodDelete, "/v1/share/"+id, testAPIKey, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, decodeBody(t, rec)["deleted"])

	// gone afterwards
	rec = doRequest(e, http.MethodGet, "/v1/share/"+id, testAPIKey, nil, "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	// idempotent delete
	rec = doJSON(e, http.MethodDelete, "/v1/share/"+id, testAPIKey, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestShareUpload_RejectsNonPDF(t *testing.T) {
	e := newTestServer(t)

	rec := uploadPDF(t, e, "alice", "notes.txt", "plain text payload")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestShareUpload_MissingFile(t *testing.T) {
	e := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("owner_id", "alice"))
	require.NoError(t, mw.Close())

	rec := doRequest(e, http.MethodPost, "/v1/share/upload", testAPIKey, &buf, mw.FormDataContentType())
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
