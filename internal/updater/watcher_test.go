// WACRM - WhatsApp Business CRM Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wacrm

package updater

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestVersionWatcher(t *testing.T) {
	env := newTestEnv(t, "1.2.0")
	m := env.newManager(t, "")

	changes := make(chan string, 10)
	w := NewVersionWatcher(m)
	w.onChange = func(v string) { changes <- v }

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- w.Serve(ctx) }()

	expectVersion(t, changes, "1.2.0")

	env.writeFile(t, DefaultVersionFile, "1.3.0\n")
	expectVersion(t, changes, "1.3.0")

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() error = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}

	if w.String() != "version-watcher" {
		t.Errorf("String() = %q", w.String())
	}
}

func expectVersion(t *testing.T, changes <-chan string, want string) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case got := <-changes:
			if got == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for version %s", want)
		}
	}
}
