// WACRM - WhatsApp Business CRM Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wacrm

package updater

import (
	"archive/zip"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

// testEnv is an application root with a small frontend/backend tree.
type testEnv struct {
	root    string
	tempDir string
}

func newTestEnv(t *testing.T, version string) *testEnv {
	t.Helper()

	env := &testEnv{root: t.TempDir(), tempDir: t.TempDir()}
	env.writeFile(t, "frontend/index.html", "<html>v"+version+"</html>")
	env.writeFile(t, "frontend/assets/app.js", "console.log('"+version+"');")
	env.writeFile(t, "backend/main.py", "VERSION = '"+version+"'\n")
	env.writeFile(t, "backend/app/routes.py", "routes = []\n")
	if version != "" {
		env.writeFile(t, DefaultVersionFile, version+"\n")
	}
	return env
}

func (e *testEnv) writeFile(t *testing.T, rel, content string) {
	t.Helper()
	path := filepath.Join(e.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create dir for %s: %v", rel, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", rel, err)
	}
}

func (e *testEnv) readFile(t *testing.T, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(e.root, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("failed to read %s: %v", rel, err)
	}
	return string(data)
}

func (e *testEnv) config(serverURL string) Config {
	return Config{
		ServerURL: serverURL,
		AppRoot:   e.root,
		TempDir:   e.tempDir,
	}
}

func (e *testEnv) newManager(t *testing.T, serverURL string) *Manager {
	t.Helper()
	m, err := NewManager(e.config(serverURL), nil)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	t.Cleanup(m.Wait)
	return m
}

// snapshot maps every regular file below the backup sources and the version
// marker to its content.
func (e *testEnv) snapshot(t *testing.T) map[string]string {
	t.Helper()
	files := make(map[string]string)
	for _, src := range append(DefaultBackupSources(), DefaultVersionFile) {
		base := filepath.Join(e.root, src)
		err := filepath.WalkDir(base, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			data, err := os.ReadFile(p)
			if err != nil {
				return err
			}
			rel, _ := filepath.Rel(e.root, p)
			files[filepath.ToSlash(rel)] = string(data)
			return nil
		})
		if err != nil && !os.IsNotExist(err) {
			t.Fatalf("failed to snapshot %s: %v", src, err)
		}
	}
	return files
}

func assertSameTree(t *testing.T, want, got map[string]string) {
	t.Helper()
	if len(want) != len(got) {
		t.Errorf("tree has %d files, want %d (got %v)", len(got), len(want), sortedKeys(got))
	}
	for name, content := range want {
		if got[name] != content {
			t.Errorf("%s = %q, want %q", name, got[name], content)
		}
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// buildZip returns a zip holding files, keyed by slash-separated name.
func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range sortedKeys(files) {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("failed to add %s: %v", name, err)
		}
		if _, err := w.Write([]byte(files[name])); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to close zip: %v", err)
	}
	return buf.Bytes()
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// releaseFiles is the content of a 1.3.0 release artifact.
func releaseFiles(version string) map[string]string {
	return map[string]string{
		"frontend/index.html":    "<html>v" + version + "</html>",
		"frontend/assets/app.js": "console.log('" + version + "');",
		"backend/main.py":        "VERSION = '" + version + "'\n",
		"version.txt":            version + "\n",
	}
}

// updateServer serves version.json and the artifact.
type updateServer struct {
	*httptest.Server

	mu             sync.Mutex
	manifest       any
	artifact       []byte
	manifestStatus int
	manifestHits   int
	artifactHits   int
}

func newUpdateServer(t *testing.T, version string, artifact []byte) *updateServer {
	t.Helper()
	s := &updateServer{artifact: artifact, manifestStatus: http.StatusOK}

	mux := http.NewServeMux()
	mux.HandleFunc("/version.json", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.manifestHits++
		if s.manifestStatus != http.StatusOK {
			w.WriteHeader(s.manifestStatus)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(s.manifest)
	})
	mux.HandleFunc("/releases/update.zip", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.artifactHits++
		_, _ = w.Write(s.artifact)
	})
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)

	s.manifest = Manifest{
		Version:      version,
		DownloadURL:  s.URL + "/releases/update.zip",
		Checksum:     sha256Hex(artifact),
		ReleaseNotes: "Bug fixes",
		ReleaseDate:  "2026-10-01",
	}
	return s
}

func (s *updateServer) setManifest(v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.manifest = v
}

func (s *updateServer) setManifestStatus(code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.manifestStatus = code
}

func (s *updateServer) hits() (manifest, artifact int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.manifestHits, s.artifactHits
}

// failingFileOps fails CopyFile for destinations containing failOn.
type failingFileOps struct {
	osFileOps
	failOn string
	copies int
}

func (f *failingFileOps) CopyFile(src, dst string, mode fs.FileMode) error {
	if strings.Contains(filepath.ToSlash(dst), f.failOn) {
		return &fs.PathError{Op: "write", Path: dst, Err: fs.ErrPermission}
	}
	f.copies++
	return f.osFileOps.CopyFile(src, dst, mode)
}

// waitForState polls the status store until the job reaches a terminal state.
func waitForState(t *testing.T, m *Manager, jobID string) *JobStatus {
	t.Helper()
	m.Wait()
	records, err := m.StatusHistory(t.Context(), 0)
	if err != nil {
		t.Fatalf("StatusHistory() error = %v", err)
	}
	for _, rec := range records {
		if rec.JobID == jobID {
			if !rec.State.Terminal() {
				t.Fatalf("job %s still %s after Wait", jobID, rec.State)
			}
			return rec
		}
	}
	t.Fatalf("job %s not found in status history", jobID)
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
