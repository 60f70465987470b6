package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/loan-lens/loanlens/internal/logging"
)

func redisClient(t *testing.T) *redis.Client {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisStoreRoundTrip(t *testing.T) {
	client := redisClient(t)
	store := NewRedisStore(client, "admin")

	if sess, err := store.Load(); err != nil || sess.Authenticated() {
		t.Fatalf("fresh store should load logged out, got %+v, %v", sess, err)
	}

	want := Session{Token: "tok-456", UserID: "u-2", UserName: "Chidi"}
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
		t.Fatalf("cleared store still authenticated")
	}
}

func TestRedisStoreProfilesAreIsolated(t *testing.T) {
	client := redisClient(t)
	admin := NewRedisStore(client, "admin")
	borrower := NewRedisStore(client, "client")

	if err := admin.Save(Session{Token: "admin-tok"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if sess, _ := borrower.Load(); sess.Authenticated() {
		t.Fatalf("client profile must not see admin session")
	}
}

func TestRedisStoreWatchSeesOtherProcessLogout(t *testing.T) {
	client := redisClient(t)

	// Two stores over the same profile stand in for two console processes.
	local := NewRedisStore(client, "admin")
	remote := NewRedisStore(client, "admin")
	if err := local.Save(Session{Token: "tok"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	mgr := NewManager(local, logging.Discard())
	fired := make(chan struct{}, 1)
	defer mgr.Subscribe(func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	})()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go mgr.Watch(ctx)
	time.Sleep(50 * time.Millisecond) // let the subscription attach

	if err := remote.Clear(); err != nil {
		t.Fatalf("remote clear: %v", err)
	}

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatalf("watch did not observe the other process's logout")
	}
	if mgr.IsAuthenticated() {
		t.Fatalf("manager still authenticated after remote logout")
	}
}
