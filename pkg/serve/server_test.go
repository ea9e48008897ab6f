package serve

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binsift/binsift/pkg/archiver"
	"github.com/binsift/binsift/pkg/extract"
	"github.com/binsift/binsift/pkg/index"
	"github.com/binsift/binsift/pkg/store"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func testInput() []byte {
	input := append(append([]byte{}, pngMagic...), bytes.Repeat([]byte{0x55}, 50)...)
	input = append(input, []byte("PK\x03\x04")...)
	input = append(input, bytes.Repeat([]byte{0x66}, 100)...)
	return input
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	x, err := index.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { x.Close() })

	core, err := extract.NewCore(extract.Config{
		Blobs: store.NewMemory(),
		Index: x,
	})
	require.NoError(t, err)
	return NewServer(core)
}

func multipartUpload(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func uploadFixture(t *testing.T, srv *Server) UploadResponse {
	t.Helper()

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, multipartUpload(t, "firmware.bin", testInput()))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

// parseEventStream decodes "data: {...}" SSE frames into events.
func parseEventStream(t *testing.T, body string) []archiver.Event {
	t.Helper()

	var events []archiver.Event
	for _, line := range strings.Split(body, "\n") {
		payload, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			continue
		}
		var ev archiver.Event
		require.NoError(t, json.Unmarshal([]byte(payload), &ev))
		events = append(events, ev)
	}
	return events
}

func TestServer_Health(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var status StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "binsift", status.Service)
	assert.Equal(t, Version, status.Version)
}

func TestServer_Upload(t *testing.T) {
	srv := newTestServer(t)

	resp := uploadFixture(t, srv)
	require.NotNil(t, resp.Metadata)
	assert.Equal(t, resp.SourceID, resp.Metadata.SourceID)
	assert.Equal(t, "firmware.bin", resp.Metadata.OriginalName)
	assert.Len(t, resp.Metadata.Files, 2)
}

func TestServer_UploadMissingFile(t *testing.T) {
	srv := newTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_UploadEmptyFile(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, multipartUpload(t, "empty.bin", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_ArchiveStream(t *testing.T) {
	srv := newTestServer(t)
	uploaded := uploadFixture(t, srv)

	reqBody, err := json.Marshal(ArchiveRequest{
		SourceID: uploaded.SourceID.Hex(),
		Selected: []int{0, 1},
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/archive", bytes.NewReader(reqBody)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	events := parseEventStream(t, rec.Body.String())
	require.NotEmpty(t, events)

	last := events[len(events)-1]
	assert.Equal(t, archiver.EventComplete, last.Type)
	assert.Equal(t, uploaded.SourceID, last.SourceID)
	assert.Positive(t, last.Size)

	// Every event before the terminal one is info or progress.
	for _, ev := range events[:len(events)-1] {
		assert.False(t, ev.Terminal())
	}
}

func TestServer_ArchiveUnknownSource(t *testing.T) {
	srv := newTestServer(t)

	reqBody := `{"source_id":"` + strings.Repeat("ab", 20) + `","selected_files":[0]}`
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/archive", strings.NewReader(reqBody)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_ArchiveBadRequest(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{name: "invalid json", body: "{"},
		{name: "invalid source id", body: `{"source_id":"xyz","selected_files":[0]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/archive", strings.NewReader(tt.body)))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestServer_Download(t *testing.T) {
	srv := newTestServer(t)
	uploaded := uploadFixture(t, srv)

	reqBody, err := json.Marshal(ArchiveRequest{
		SourceID: uploaded.SourceID.Hex(),
		Selected: []int{0},
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/archive", bytes.NewReader(reqBody)))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/download/"+uploaded.SourceID.Hex(), nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "extracted_"+uploaded.SourceID.Hex()+".zip")

	data := rec.Body.Bytes()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	assert.Len(t, zr.File, 1)
}

func TestServer_DownloadUnknownSource(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/download/"+strings.Repeat("cd", 20), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/download/not-hex", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_Sources(t *testing.T) {
	srv := newTestServer(t)
	uploaded := uploadFixture(t, srv)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sources", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var records []index.SourceRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, uploaded.SourceID, records[0].SourceID)
	assert.Equal(t, "firmware.bin", records[0].OriginalName)
}
