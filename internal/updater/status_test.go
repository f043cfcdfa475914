// WACRM - WhatsApp Business CRM Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wacrm

package updater

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
)

func newTestBadgerStore(t *testing.T) *BadgerStatusStore {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		t.Fatalf("failed to open in-memory badger: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewBadgerStatusStore(db)
}

func newTestFileStore(t *testing.T) *FileStatusStore {
	t.Helper()
	return NewFileStatusStore(filepath.Join(t.TempDir(), StatusFileName), 5)
}

func testStatus(i int, base time.Time) *JobStatus {
	return &JobStatus{
		JobID:     fmt.Sprintf("job-%02d", i),
		Kind:      JobInstall,
		State:     JobRunning,
		StartedAt: base.Add(time.Duration(i) * time.Minute),
	}
}

func TestStatusStores(t *testing.T) {
	stores := map[string]func(t *testing.T) StatusStore{
		"file":   func(t *testing.T) StatusStore { return newTestFileStore(t) },
		"badger": func(t *testing.T) StatusStore { return newTestBadgerStore(t) },
	}

	for name, newStore := range stores {
		t.Run(name, func(t *testing.T) {
			t.Run("empty", func(t *testing.T) {
				store := newStore(t)
				if _, err := store.Last(t.Context()); !errors.Is(err, ErrNoStatus) {
					t.Errorf("Last() error = %v, want ErrNoStatus", err)
				}
				records, err := store.List(t.Context(), 10)
				if err != nil {
					t.Fatalf("List() error = %v", err)
				}
				if len(records) != 0 {
					t.Errorf("List() = %d records, want 0", len(records))
				}
			})

			t.Run("upsert and order", func(t *testing.T) {
				store := newStore(t)
				base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

				for i := 1; i <= 3; i++ {
					if err := store.Save(t.Context(), testStatus(i, base)); err != nil {
						t.Fatalf("Save(%d) error = %v", i, err)
					}
				}

				finished := base.Add(time.Hour)
				update := testStatus(2, base)
				update.State = JobRolledBack
				update.Error = "disk full"
				update.FinishedAt = &finished
				if err := store.Save(t.Context(), update); err != nil {
					t.Fatalf("Save(update) error = %v", err)
				}

				records, err := store.List(t.Context(), 0)
				if err != nil {
					t.Fatalf("List() error = %v", err)
				}
				if len(records) != 3 {
					t.Fatalf("List() = %d records, want 3", len(records))
				}
				wantOrder := []string{"job-03", "job-02", "job-01"}
				for i, want := range wantOrder {
					if records[i].JobID != want {
						t.Errorf("records[%d] = %s, want %s", i, records[i].JobID, want)
					}
				}
				if records[1].State != JobRolledBack || records[1].Error != "disk full" {
					t.Errorf("updated record = %+v", records[1])
				}
				if records[1].FinishedAt == nil || !records[1].FinishedAt.Equal(finished) {
					t.Errorf("FinishedAt = %v, want %v", records[1].FinishedAt, finished)
				}

				last, err := store.Last(t.Context())
				if err != nil {
					t.Fatalf("Last() error = %v", err)
				}
				if last.JobID != "job-03" {
					t.Errorf("Last() = %s, want job-03", last.JobID)
				}

				limited, err := store.List(t.Context(), 2)
				if err != nil {
					t.Fatalf("List(2) error = %v", err)
				}
				if len(limited) != 2 {
					t.Errorf("List(2) = %d records, want 2", len(limited))
				}
			})
		})
	}
}

func TestFileStatusStoreTrimsHistory(t *testing.T) {
	store := newTestFileStore(t)
	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	for i := 1; i <= 8; i++ {
		if err := store.Save(t.Context(), testStatus(i, base)); err != nil {
			t.Fatalf("Save(%d) error = %v", i, err)
		}
	}

	records, err := store.List(t.Context(), 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 5 {
		t.Fatalf("List() = %d records, want 5", len(records))
	}
	if records[0].JobID != "job-08" || records[4].JobID != "job-04" {
		t.Errorf("kept %s..%s, want job-08..job-04", records[0].JobID, records[4].JobID)
	}
}

func TestFileStatusStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", StatusFileName)
	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	if err := NewFileStatusStore(path, 0).Save(t.Context(), testStatus(1, base)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	reopened := NewFileStatusStore(path, 0)
	last, err := reopened.Last(t.Context())
	if err != nil {
		t.Fatalf("Last() error = %v", err)
	}
	if last.JobID != "job-01" {
		t.Errorf("Last() = %s, want job-01", last.JobID)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("status directory has %d entries, want only the status file", len(entries))
	}
}

func TestFileStatusStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), StatusFileName)
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileStatusStore(path, 0).Last(t.Context()); err == nil {
		t.Error("Last() expected error for a corrupt status file")
	}
}

func TestOpenBadgerStatusStore(t *testing.T) {
	dir := t.TempDir()
	store, err := OpenBadgerStatusStore(dir)
	if err != nil {
		t.Fatalf("OpenBadgerStatusStore() error = %v", err)
	}
	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	if err := store.Save(t.Context(), testStatus(1, base)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := OpenBadgerStatusStore(dir)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()
	last, err := reopened.Last(t.Context())
	if err != nil {
		t.Fatalf("Last() error = %v", err)
	}
	if last.JobID != "job-01" {
		t.Errorf("Last() = %s, want job-01", last.JobID)
	}
}

func TestManagerUsesInjectedStatusStore(t *testing.T) {
	env := newTestEnv(t, "1.2.0")
	store := newTestBadgerStore(t)
	m, err := NewManager(env.config(""), store)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	t.Cleanup(m.Wait)

	backupPath, err := m.CreateBackup(t.Context())
	if err != nil {
		t.Fatalf("CreateBackup() error = %v", err)
	}
	job, err := m.StartRestore(t.Context(), filepath.Base(backupPath))
	if err != nil {
		t.Fatalf("StartRestore() error = %v", err)
	}
	waitForState(t, m, job.ID)

	last, err := store.Last(t.Context())
	if err != nil {
		t.Fatalf("Last() error = %v", err)
	}
	if last.JobID != job.ID || last.State != JobSucceeded {
		t.Errorf("store record = %+v, want succeeded %s", last, job.ID)
	}
	if _, err := os.Stat(filepath.Join(env.root, StatusFileName)); !os.IsNotExist(err) {
		t.Error("file status store should not be used when a store is injected")
	}
}

func TestOpenStatusStore(t *testing.T) {
	env := newTestEnv(t, "1.2.0")
	cfg := env.config("")

	tests := []struct {
		backend  string
		path     string
		wantType string
		wantErr  bool
	}{
		{backend: "", wantType: "*updater.FileStatusStore"},
		{backend: StatusStoreFile, path: filepath.Join(t.TempDir(), "status.json"), wantType: "*updater.FileStatusStore"},
		{backend: StatusStoreBadger, wantType: "*updater.BadgerStatusStore"},
		{backend: "redis", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			store, err := OpenStatusStore(cfg, tt.backend, tt.path)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error for unknown backend")
				}
				return
			}
			if err != nil {
				t.Fatalf("OpenStatusStore() error = %v", err)
			}
			defer store.Close()
			if got := fmt.Sprintf("%T", store); got != tt.wantType {
				t.Errorf("store type = %s, want %s", got, tt.wantType)
			}
		})
	}

	if _, err := os.Stat(filepath.Join(env.root, DefaultBackupDirName, ".status")); err != nil {
		t.Errorf("badger store directory not created: %v", err)
	}
}

func TestRecoverInterrupted(t *testing.T) {
	stores := map[string]func(t *testing.T) StatusStore{
		"file":   func(t *testing.T) StatusStore { return newTestFileStore(t) },
		"badger": func(t *testing.T) StatusStore { return newTestBadgerStore(t) },
	}
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for name, newStore := range stores {
		t.Run(name, func(t *testing.T) {
			env := newTestEnv(t, "1.2.0")
			store := newStore(t)
			stale := testStatus(1, base)
			done := testStatus(2, base)
			done.State = JobSucceeded
			for _, rec := range []*JobStatus{stale, done} {
				if err := store.Save(t.Context(), rec); err != nil {
					t.Fatalf("Save() error = %v", err)
				}
			}

			m, err := NewManager(env.config(""), store)
			if err != nil {
				t.Fatalf("NewManager() error = %v", err)
			}
			m.now = fixedClock(base.Add(time.Hour))

			n, err := m.RecoverInterrupted(t.Context())
			if err != nil {
				t.Fatalf("RecoverInterrupted() error = %v", err)
			}
			if n != 1 {
				t.Errorf("RecoverInterrupted() = %d, want 1", n)
			}

			records, err := store.List(t.Context(), 0)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			for _, rec := range records {
				switch rec.JobID {
				case stale.JobID:
					if rec.State != JobFailed || rec.Error != ErrJobInterrupted.Error() || rec.FinishedAt == nil {
						t.Errorf("interrupted record = %+v, want failed with finish time", rec)
					}
				case done.JobID:
					if rec.State != JobSucceeded || rec.Error != "" {
						t.Errorf("finished record changed: %+v", rec)
					}
				}
			}
			if m.Busy() {
				t.Error("manager still busy after recovery")
			}
		})
	}
}

func TestRecoverInterruptedSkipsWhileScopeHeld(t *testing.T) {
	env := newTestEnv(t, "1.2.0")
	store := newTestFileStore(t)
	live := testStatus(1, time.Now())
	if err := store.Save(t.Context(), live); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	owner := env.newManager(t, "")
	release, err := owner.acquire(t.Context())
	if err != nil {
		t.Fatalf("acquire() error = %v", err)
	}
	defer release()

	m, err := NewManager(env.config(""), store)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	n, err := m.RecoverInterrupted(t.Context())
	if err != nil || n != 0 {
		t.Fatalf("RecoverInterrupted() = %d, %v, want 0, nil", n, err)
	}
	last, err := store.Last(t.Context())
	if err != nil {
		t.Fatalf("Last() error = %v", err)
	}
	if last.State != JobRunning {
		t.Errorf("State = %s, want running while another job owns the scope", last.State)
	}
}
