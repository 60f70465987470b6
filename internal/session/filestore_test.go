package session

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/loan-lens/loanlens/internal/logging"
)

func TestFileStoreRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	if sess, err := store.Load(); err != nil || sess.Authenticated() {
		t.Fatalf("fresh store should load logged out, got %+v, %v", sess, err)
	}

	want := Session{Token: "tok-123", UserID: "u-1", UserName: "Ada"}
	if err := store.Save(want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != want {
		t.Fatalf("loaded %+v, want %+v", got, want)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if sess, _ := store.Load(); sess.Authenticated() {
		t.Fatalf("cleared store still authenticated: %+v", sess)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("second clear must be a no-op, got %v", err)
	}
}

func TestFileStoreMalformedLoadsLoggedOut(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, sessionFileName), []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	sess, err := store.Load()
	if err != nil {
		t.Fatalf("malformed state must not error, got %v", err)
	}
	if sess.Authenticated() {
		t.Fatalf("malformed state must read as logged out")
	}
}

func TestFileStoreWatchSeesExternalLogout(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	store.interval = 10 * time.Millisecond
	if err := store.Save(Session{Token: "tok"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	mgr := NewManager(store, logging.Discard())
	fired := make(chan struct{}, 1)
	cancelSub := mgr.Subscribe(func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	})
	defer cancelSub()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go mgr.Watch(ctx)

	// Another process logs out by removing the persisted state.
	other, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("second store: %v", err)
	}
	if err := other.Clear(); err != nil {
		t.Fatalf("external clear: %v", err)
	}

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatalf("watch did not observe external logout")
	}
	if mgr.IsAuthenticated() {
		t.Fatalf("manager still authenticated after external logout")
	}
}

func TestFileStoreWatchIgnoresOwnWrites(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	store.interval = 10 * time.Millisecond

	mgr := NewManager(store, logging.Discard())
	var broadcasts atomic.Int32
	cancelSub := mgr.Subscribe(func() { broadcasts.Add(1) })
	defer cancelSub()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go mgr.Watch(ctx)

	if err := mgr.Establish(Session{Token: "tok"}); err != nil {
		t.Fatalf("establish: %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	// Exactly the synchronous Establish broadcast; the poller must not
	// re-announce this process's own write.
	if got := broadcasts.Load(); got != 1 {
		t.Fatalf("broadcasts = %d, want 1", got)
	}
}
