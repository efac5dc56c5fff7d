package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"preview-generator/internal/fixtures"
	"preview-generator/internal/preview"
)

// run executes the root command with a private cache dir and returns stdout.
func run(t *testing.T, cacheDir string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))

	var stdout, stderr bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--cache-dir", cacheDir, "--vips=false", "--soffice", "preview-test-no-soffice"}, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

func decode(t *testing.T, out string, v interface{}) {
	t.Helper()
	if err := json.Unmarshal([]byte(out), v); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
}

func TestBuildCommand(t *testing.T) {
	cache := t.TempDir()
	src := fixtures.Write(t, t.TempDir(), "photo.png", fixtures.PNG(100, 50))

	out, err := run(t, cache, "build", src, "--kind", "jpeg", "--width", "40")
	if err != nil {
		t.Fatalf("build error = %v", err)
	}
	var res preview.Result
	decode(t, out, &res)
	if res.Kind != "jpeg" || res.Cached || res.Size <= 0 {
		t.Errorf("first build = %+v", res)
	}
	if filepath.Dir(res.Path) != cache {
		t.Errorf("artifact %s not in cache dir %s", res.Path, cache)
	}

	out, err = run(t, cache, "build", src, "--kind", "jpeg", "--width", "40", "--height", "40")
	if err != nil {
		t.Fatal(err)
	}
	var again preview.Result
	decode(t, out, &again)
	if !again.Cached || again.Path != res.Path {
		t.Errorf("second build = %+v, want cached %s", again, res.Path)
	}
}

func TestBuildCommandErrors(t *testing.T) {
	cache := t.TempDir()
	dir := t.TempDir()
	text := fixtures.Write(t, dir, "notes.txt", []byte("hello"))

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"bad kind", []string{"build", text, "--kind", "gif"}, "gif"},
		{"missing file", []string{"build", filepath.Join(dir, "nope.txt"), "--kind", "text"}, "nope.txt"},
		{"unavailable kind", []string{"build", text, "--kind", "jpeg"}, "jpeg"},
		{"no args", []string{"build"}, "arg"},
		{"bad output", []string{"-o", "xml", "mimetypes"}, "xml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, cache, tt.args...)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestPagesCommand(t *testing.T) {
	src := fixtures.Write(t, t.TempDir(), "report.pdf", fixtures.PDF("one", "two", "three"))

	out, err := run(t, t.TempDir(), "pages", src)
	if err != nil {
		t.Fatalf("pages error = %v", err)
	}
	var got pagesOutput
	decode(t, out, &got)
	if got.Pages != 3 || got.MimeType != "application/pdf" {
		t.Errorf("pages = %+v", got)
	}
}

func TestMimeTypesCommandYAML(t *testing.T) {
	out, err := run(t, t.TempDir(), "-o", "yaml", "mimetypes")
	if err != nil {
		t.Fatalf("mimetypes error = %v", err)
	}
	var got struct {
		MimeTypes []string `yaml:"mimeTypes"`
		Builders  []struct {
			Name string `yaml:"name"`
		} `yaml:"builders"`
	}
	if err := yaml.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not YAML: %v\n%s", err, out)
	}
	if len(got.Builders) == 0 {
		t.Fatal("no builders listed")
	}
	found := false
	for _, m := range got.MimeTypes {
		if m == "application/pdf" {
			found = true
		}
	}
	if !found {
		t.Errorf("application/pdf missing from %v", got.MimeTypes)
	}
}

func TestWarmCommand(t *testing.T) {
	cache := t.TempDir()
	dir := t.TempDir()
	fixtures.Write(t, dir, "a.jpg", fixtures.JPEG(20, 10))
	fixtures.Write(t, dir, "sub/b.txt", []byte("text"))
	fixtures.Write(t, dir, ".hidden/c.txt", []byte("ignored"))

	out, err := run(t, cache, "warm", dir, "--kind", "jpeg,text")
	if err != nil {
		t.Fatalf("warm error = %v", err)
	}
	var got warmOutput
	decode(t, out, &got)
	if got.Files != 2 || got.Generated != 2 || got.Skipped != 2 || got.Failed != 0 {
		t.Errorf("warm = %+v", got)
	}

	out, err = run(t, cache, "stats")
	if err != nil {
		t.Fatalf("stats error = %v", err)
	}
	var stats preview.CacheStats
	decode(t, out, &stats)
	if stats.Count != 2 || stats.Bytes <= 0 {
		t.Errorf("stats = %+v, want 2 artifacts", stats)
	}
}

func TestWarmCommandBadKind(t *testing.T) {
	if _, err := run(t, t.TempDir(), "warm", t.TempDir(), "--kind", "mp4"); err == nil {
		t.Error("expected an error for an unknown kind")
	}
}

func TestRemoveCommand(t *testing.T) {
	cache := t.TempDir()
	db := filepath.Join(t.TempDir(), "index.db")
	src := fixtures.Write(t, t.TempDir(), "notes.txt", []byte("hello"))

	if _, err := run(t, cache, "rm", src); err == nil {
		t.Error("rm without --index should fail")
	}

	if _, err := run(t, cache, "--index", db, "build", src, "--kind", "text"); err != nil {
		t.Fatal(err)
	}
	out, err := run(t, cache, "--index", db, "rm", src)
	if err != nil {
		t.Fatalf("rm error = %v", err)
	}
	var got struct {
		Removed map[string]int `json:"removed"`
	}
	decode(t, out, &got)
	if got.Removed[src] != 1 {
		t.Errorf("removed = %v, want 1 for %s", got.Removed, src)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, t.TempDir(), "version")
	if err != nil {
		t.Fatal(err)
	}
	var info struct {
		Version string `json:"version"`
	}
	decode(t, out, &info)
	if info.Version == "" {
		t.Errorf("version output = %s", out)
	}
}

func TestWriteOutput(t *testing.T) {
	v := map[string]int{"pages": 2}

	var buf bytes.Buffer
	if err := writeOutput(&buf, outputJSON, v); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(buf.String()); got != `{"pages":2}` {
		t.Errorf("json = %q", got)
	}

	buf.Reset()
	if err := writeOutput(&buf, outputYAML, v); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(buf.String()); got != "pages: 2" {
		t.Errorf("yaml = %q", got)
	}
}
