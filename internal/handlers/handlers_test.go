package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/jpeg"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/gorilla/mux"

	"preview-generator/internal/builder"
	"preview-generator/internal/cachepath"
	"preview-generator/internal/fixtures"
	"preview-generator/internal/index"
	"preview-generator/internal/middleware"
	"preview-generator/internal/preview"
	"preview-generator/internal/startup"
)

const notes = "first line\nsecond <line>\n"

type testServer struct {
	router    *mux.Router
	handlers  *Handlers
	manager   *preview.Manager
	sourceDir string
}

func newTestServer(t *testing.T, withIndex bool) *testServer {
	t.Helper()

	sourceDir := t.TempDir()
	fixtures.Write(t, sourceDir, "photo.png", fixtures.PNG(100, 50))
	fixtures.Write(t, sourceDir, "docs/report.pdf", fixtures.PDF("page one", "page two"))
	fixtures.Write(t, sourceDir, "notes.txt", []byte(notes))
	fixtures.Write(t, sourceDir, "blob.bin", []byte{0x00, 0x01, 0x02, 0x03, 0xfe, 0xff})

	var idx *index.Index
	if withIndex {
		var err error
		idx, err = index.New(context.Background(), filepath.Join(t.TempDir(), "previews.db"))
		if err != nil {
			t.Fatalf("index.New() error = %v", err)
		}
		t.Cleanup(func() { idx.Close() })
	}

	m, err := preview.New(preview.Config{
		CacheDir: filepath.Join(t.TempDir(), "previews"),
		Registry: builder.NewRegistry(
			builder.NewImageBuilder(),
			builder.NewPDFBuilder(),
			builder.NewPlainTextBuilder(nil),
		),
		Index: idx,
	})
	if err != nil {
		t.Fatalf("preview.New() error = %v", err)
	}

	h := New(m, &startup.Config{SourceDir: sourceDir})
	r := mux.NewRouter()
	h.RegisterRoutes(r)
	return &testServer{router: r, handlers: h, manager: m, sourceDir: sourceDir}
}

func (s *testServer) do(t *testing.T, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
}

func TestGetPreviewJPEGCaching(t *testing.T) {
	s := newTestServer(t, false)

	first := s.do(t, http.MethodGet, "/api/preview/jpeg/photo.png")
	if first.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", first.Code, first.Body.String())
	}
	if ct := first.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("Content-Type = %q", ct)
	}
	if got := first.Header().Get(middleware.CacheStatusHeader); got != "MISS" {
		t.Errorf("first cache status = %q, want MISS", got)
	}
	if got := first.Header().Get("X-Preview-Builder"); got != "image" {
		t.Errorf("builder header = %q, want image", got)
	}

	img, err := jpeg.Decode(bytes.NewReader(first.Body.Bytes()))
	if err != nil {
		t.Fatalf("decode preview: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 100 || b.Dy() != 50 {
		t.Errorf("preview is %dx%d, want 100x50 (no upscaling)", b.Dx(), b.Dy())
	}

	second := s.do(t, http.MethodGet, "/api/preview/jpg/photo.png")
	if got := second.Header().Get(middleware.CacheStatusHeader); got != "HIT" {
		t.Errorf("second cache status = %q, want HIT", got)
	}
	if !bytes.Equal(first.Body.Bytes(), second.Body.Bytes()) {
		t.Error("cached preview differs from the generated one")
	}
}

func TestGetPreviewJPEGSize(t *testing.T) {
	s := newTestServer(t, false)

	w := s.do(t, http.MethodGet, "/api/preview/jpeg/photo.png?width=40")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	img, err := jpeg.Decode(bytes.NewReader(w.Body.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 40 || b.Dy() != 20 {
		t.Errorf("preview is %dx%d, want 40x20", b.Dx(), b.Dy())
	}
}

func TestGetPreviewKinds(t *testing.T) {
	s := newTestServer(t, false)

	t.Run("image json", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/preview/json/photo.png")
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
		}
		var meta struct {
			Width  int    `json:"width"`
			Height int    `json:"height"`
			Mode   string `json:"mode"`
		}
		decodeBody(t, w, &meta)
		if meta.Width != 100 || meta.Height != 50 {
			t.Errorf("metadata = %+v", meta)
		}
	})

	t.Run("text identity", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/preview/text/notes.txt")
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		if w.Body.String() != notes {
			t.Errorf("body = %q, want %q", w.Body.String(), notes)
		}
		if ct := w.Header().Get("Content-Type"); ct != "text/plain; charset=utf-8" {
			t.Errorf("Content-Type = %q", ct)
		}
	})

	t.Run("text html escapes markup", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/preview/html/notes.txt")
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		if !bytes.Contains(w.Body.Bytes(), []byte("second &lt;line&gt;")) {
			t.Errorf("html body does not escape text: %s", w.Body.String())
		}
	})

	t.Run("pdf page", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/preview/pdf/docs/report.pdf?page=1")
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
		}
		if !bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")) {
			t.Error("response is not a PDF")
		}
	})

	t.Run("pdf text all pages", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/preview/text/docs/report.pdf?page=all")
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
		}
		body := w.Body.String()
		if !bytes.Contains([]byte(body), []byte("page one")) || !bytes.Contains([]byte(body), []byte("page two")) {
			t.Errorf("text = %q", body)
		}
	})
}

func TestGetPreviewErrors(t *testing.T) {
	s := newTestServer(t, false)

	tests := []struct {
		name   string
		target string
		want   int
	}{
		{"unknown kind", "/api/preview/gif/photo.png", http.StatusBadRequest},
		{"bad page", "/api/preview/jpeg/photo.png?page=abc", http.StatusBadRequest},
		{"negative page", "/api/preview/jpeg/photo.png?page=-2", http.StatusBadRequest},
		{"bad width", "/api/preview/jpeg/photo.png?width=0", http.StatusBadRequest},
		{"huge width", "/api/preview/jpeg/photo.png?width=100000", http.StatusBadRequest},
		{"bad force", "/api/preview/jpeg/photo.png?force=maybe", http.StatusBadRequest},
		{"page out of range", "/api/preview/pdf/docs/report.pdf?page=2", http.StatusBadRequest},
		{"image page out of range", "/api/preview/jpeg/photo.png?page=1", http.StatusBadRequest},
		{"unavailable kind", "/api/preview/html/photo.png", http.StatusUnprocessableEntity},
		{"unsupported mime type", "/api/preview/jpeg/blob.bin", http.StatusUnsupportedMediaType},
		{"missing file", "/api/preview/jpeg/missing.png", http.StatusNotFound},
		{"directory", "/api/preview/text/docs", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodGet, tt.target)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.want, w.Body.String())
			}
			var body map[string]string
			decodeBody(t, w, &body)
			if body["error"] == "" {
				t.Error("missing error message")
			}
			if bytes.Contains(w.Body.Bytes(), []byte(s.sourceDir)) {
				t.Errorf("error exposes source dir: %s", w.Body.String())
			}
		})
	}
}

func TestResolvePath(t *testing.T) {
	h := New(nil, &startup.Config{SourceDir: "/data"})

	tests := []struct {
		rel     string
		want    string
		wantErr bool
	}{
		{rel: "photo.png", want: "/data/photo.png"},
		{rel: "a/b/c.pdf", want: "/data/a/b/c.pdf"},
		{rel: "a/../b.txt", want: "/data/b.txt"},
		{rel: "../etc/passwd", wantErr: true},
		{rel: "a/../../etc/passwd", wantErr: true},
		{rel: "..", wantErr: true},
		{rel: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			got, err := h.resolvePath(tt.rel)
			if tt.wantErr {
				if !errors.Is(err, errInvalidPath) {
					t.Errorf("resolvePath(%q) error = %v, want errInvalidPath", tt.rel, err)
				}
				return
			}
			if err != nil || got != filepath.FromSlash(tt.want) {
				t.Errorf("resolvePath(%q) = %q, %v; want %q", tt.rel, got, err, tt.want)
			}
		})
	}
}

func TestParsePreviewOptions(t *testing.T) {
	tests := []struct {
		query   string
		want    preview.Options
		wantErr bool
	}{
		{query: "", want: preview.Options{}},
		{query: "page=3", want: preview.Options{Page: 3}},
		{query: "page=all", want: preview.Options{Page: builder.AllPages}},
		{query: "page=-1", want: preview.Options{Page: builder.AllPages}},
		{query: "width=64", want: preview.Options{Size: cachepath.Dims{Width: 64, Height: 64}}},
		{query: "height=32", want: preview.Options{Size: cachepath.Dims{Width: 32, Height: 32}}},
		{query: "width=64&height=32&force=true", want: preview.Options{Size: cachepath.Dims{Width: 64, Height: 32}, Force: true}},
		{query: "page=x", wantErr: true},
		{query: "width=-5", wantErr: true},
		{query: "force=2x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			q, _ := url.ParseQuery(tt.query)
			got, err := parsePreviewOptions(q)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parsePreviewOptions(%q) error = %v", tt.query, err)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parsePreviewOptions(%q) = %+v, want %+v", tt.query, got, tt.want)
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("x: %w", builder.ErrUnsupportedMimeType), http.StatusUnsupportedMediaType},
		{&builder.UnavailableError{Builder: "image", Kind: builder.KindHTML}, http.StatusUnprocessableEntity},
		{fmt.Errorf("x: %w", builder.ErrPageOutOfRange), http.StatusBadRequest},
		{fmt.Errorf("stat: %w", fs.ErrNotExist), http.StatusNotFound},
		{fmt.Errorf("x: %w", preview.ErrNotAFile), http.StatusNotFound},
		{fmt.Errorf("x: %w", preview.ErrNoIndex), http.StatusNotImplemented},
		{errInvalidPath, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.want {
				t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestGetPages(t *testing.T) {
	s := newTestServer(t, false)

	w := s.do(t, http.MethodGet, "/api/pages/docs/report.pdf")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp PagesResponse
	decodeBody(t, w, &resp)
	want := PagesResponse{Path: "docs/report.pdf", MimeType: "application/pdf", Pages: 2}
	if resp != want {
		t.Errorf("pages = %+v, want %+v", resp, want)
	}

	if w := s.do(t, http.MethodGet, "/api/pages/photo.png"); w.Code != http.StatusOK {
		t.Errorf("image pages status = %d", w.Code)
	}
	if w := s.do(t, http.MethodGet, "/api/pages/nope.pdf"); w.Code != http.StatusNotFound {
		t.Errorf("missing file status = %d, want 404", w.Code)
	}
}

func TestGetMimeTypes(t *testing.T) {
	s := newTestServer(t, false)

	w := s.do(t, http.MethodGet, "/api/mimetypes")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp MimeTypesResponse
	decodeBody(t, w, &resp)

	found := map[string]bool{}
	for _, m := range resp.MimeTypes {
		found[m] = true
	}
	for _, m := range []string{"image/png", "application/pdf", "text/plain"} {
		if !found[m] {
			t.Errorf("mime types missing %s: %v", m, resp.MimeTypes)
		}
	}
	if len(resp.Builders) != 3 || resp.Builders[0].Name != "image" {
		t.Errorf("builders = %+v", resp.Builders)
	}
}

func TestGetStats(t *testing.T) {
	s := newTestServer(t, true)

	if w := s.do(t, http.MethodGet, "/api/preview/json/photo.png"); w.Code != http.StatusOK {
		t.Fatalf("preview status = %d", w.Code)
	}

	w := s.do(t, http.MethodGet, "/api/stats")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var stats preview.CacheStats
	decodeBody(t, w, &stats)
	if stats.CacheDir != s.manager.CacheDir() {
		t.Errorf("cacheDir = %q, want %q", stats.CacheDir, s.manager.CacheDir())
	}
	if stats.IndexedKinds["json"] != 1 {
		t.Errorf("indexedKinds = %v", stats.IndexedKinds)
	}
}

func TestDeletePreviews(t *testing.T) {
	s := newTestServer(t, true)

	for _, kind := range []string{"jpeg", "json"} {
		if w := s.do(t, http.MethodGet, "/api/preview/"+kind+"/photo.png"); w.Code != http.StatusOK {
			t.Fatalf("%s preview status = %d", kind, w.Code)
		}
	}

	w := s.do(t, http.MethodDelete, "/api/preview/photo.png")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp struct {
		Path    string `json:"path"`
		Removed int    `json:"removed"`
	}
	decodeBody(t, w, &resp)
	if resp.Removed != 2 || resp.Path != "photo.png" {
		t.Errorf("response = %+v", resp)
	}

	entries, err := os.ReadDir(s.manager.CacheDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".jpg" || filepath.Ext(e.Name()) == ".json" {
			t.Errorf("artifact %s survived delete", e.Name())
		}
	}
}

func TestDeletePreviewsWithoutIndex(t *testing.T) {
	s := newTestServer(t, false)

	w := s.do(t, http.MethodDelete, "/api/preview/photo.png")
	if w.Code != http.StatusNotImplemented {
		t.Errorf("status = %d, want 501", w.Code)
	}
}

func TestProbes(t *testing.T) {
	s := newTestServer(t, false)

	tests := []struct {
		method string
		path   string
		status string
	}{
		{http.MethodGet, "/health", statusHealthy},
		{http.MethodGet, "/healthz", statusHealthy},
		{http.MethodGet, "/livez", "alive"},
		{http.MethodGet, "/readyz", "ready"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := s.do(t, tt.method, tt.path)
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d", w.Code)
			}
			var body map[string]interface{}
			decodeBody(t, w, &body)
			if body["status"] != tt.status {
				t.Errorf("status field = %v, want %s", body["status"], tt.status)
			}
		})
	}

	if w := s.do(t, http.MethodHead, "/livez"); w.Code != http.StatusOK || w.Body.Len() != 0 {
		t.Errorf("HEAD /livez = %d with %d body bytes", w.Code, w.Body.Len())
	}
}

func TestProbesWithoutBuilders(t *testing.T) {
	m, err := preview.New(preview.Config{
		CacheDir: t.TempDir(),
		Registry: builder.NewRegistry(),
	})
	if err != nil {
		t.Fatal(err)
	}
	h := New(m, &startup.Config{SourceDir: t.TempDir()})
	r := mux.NewRouter()
	h.RegisterRoutes(r)

	for _, path := range []string{"/health", "/readyz"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("%s status = %d, want 503", path, w.Code)
		}
	}
}

func TestGetVersion(t *testing.T) {
	s := newTestServer(t, false)

	w := s.do(t, http.MethodGet, "/version")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var info startup.BuildInfo
	decodeBody(t, w, &info)
	if info.Version != startup.Version {
		t.Errorf("version = %q, want %q", info.Version, startup.Version)
	}
}

func TestTriggerWarm(t *testing.T) {
	s := newTestServer(t, false)

	w := s.do(t, http.MethodPost, "/api/warm?kind=json")
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp struct {
		Status string         `json:"status"`
		Files  int            `json:"files"`
		Kinds  []builder.Kind `json:"kinds"`
	}
	decodeBody(t, w, &resp)
	if resp.Status != "started" || resp.Files != 4 || len(resp.Kinds) != 1 {
		t.Errorf("response = %+v", resp)
	}

	s.handlers.warmWG.Wait()
	if s.handlers.IsWarming() {
		t.Error("still warming after the run finished")
	}

	hit := s.do(t, http.MethodGet, "/api/preview/json/photo.png")
	if got := hit.Header().Get(middleware.CacheStatusHeader); got != "HIT" {
		t.Errorf("cache status after warm = %q, want HIT", got)
	}
}

func TestTriggerWarmErrors(t *testing.T) {
	s := newTestServer(t, false)

	if w := s.do(t, http.MethodPost, "/api/warm?kind=gif"); w.Code != http.StatusBadRequest {
		t.Errorf("bad kind status = %d, want 400", w.Code)
	}
	if w := s.do(t, http.MethodPost, "/api/warm?path=nowhere"); w.Code != http.StatusNotFound {
		t.Errorf("missing dir status = %d, want 404", w.Code)
	}
	if s.handlers.IsWarming() {
		t.Error("failed request left the warming flag set")
	}

	s.handlers.warming.Store(true)
	defer s.handlers.warming.Store(false)
	if w := s.do(t, http.MethodPost, "/api/warm"); w.Code != http.StatusConflict {
		t.Errorf("concurrent warm status = %d, want 409", w.Code)
	}
}

func TestShutdownCancelsWarm(t *testing.T) {
	s := newTestServer(t, false)

	if w := s.do(t, http.MethodPost, "/api/warm?path=docs"); w.Code != http.StatusAccepted {
		t.Fatalf("status = %d", w.Code)
	}
	s.handlers.Shutdown()
	if s.handlers.IsWarming() {
		t.Error("warming flag still set after Shutdown")
	}
}
