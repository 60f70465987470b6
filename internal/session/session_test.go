package session

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/loan-lens/loanlens/internal/logging"
)

// memStore keeps the session in memory, for manager-only tests.
type memStore struct {
	sess Session
}

func (m *memStore) Load() (Session, error) { return m.sess, nil }
func (m *memStore) Save(s Session) error   { m.sess = s; return nil }
func (m *memStore) Clear() error           { m.sess = Session{}; return nil }

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u-1",
		"exp": exp.Unix(),
	})
	signed, err := tok.SignedString([]byte("remote-only-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestManagerBroadcastAndRelease(t *testing.T) {
	mgr := NewManager(&memStore{}, logging.Discard())

	var first, second int
	cancelFirst := mgr.Subscribe(func() { first++ })
	cancelSecond := mgr.Subscribe(func() { second++ })

	if err := mgr.Establish(Session{Token: "tok", UserID: "u-1"}); err != nil {
		t.Fatalf("establish: %v", err)
	}
	if !mgr.IsAuthenticated() {
		t.Fatalf("expected authenticated after establish")
	}
	if first != 1 || second != 1 {
		t.Fatalf("subscribers fired %d/%d, want 1/1", first, second)
	}

	cancelFirst()
	if err := mgr.Logout(); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if mgr.IsAuthenticated() {
		t.Fatalf("expected logged out after logout")
	}
	if first != 1 {
		t.Fatalf("released subscriber fired again: %d", first)
	}
	if second != 2 {
		t.Fatalf("active subscriber fired %d, want 2", second)
	}
	cancelSecond()
	cancelSecond() // releasing twice must be harmless
}

func TestManagerExpireIfStale(t *testing.T) {
	store := &memStore{}
	mgr := NewManager(store, logging.Discard())

	var fired int
	defer mgr.Subscribe(func() { fired++ })()

	store.sess = Session{Token: signedToken(t, time.Now().Add(time.Hour))}
	if mgr.ExpireIfStale() {
		t.Fatalf("live token must not expire")
	}

	store.sess = Session{Token: signedToken(t, time.Now().Add(-time.Minute))}
	if !mgr.ExpireIfStale() {
		t.Fatalf("stale token must expire")
	}
	if mgr.IsAuthenticated() {
		t.Fatalf("expected logged out after expiry")
	}
	if fired != 1 {
		t.Fatalf("expiry must broadcast exactly once, fired %d", fired)
	}

	store.sess = Session{Token: "not-a-jwt"}
	if !mgr.ExpireIfStale() {
		t.Fatalf("malformed token must expire")
	}
}

func TestManagerLoadFailureReadsLoggedOut(t *testing.T) {
	mgr := NewManager(failingStore{}, logging.Discard())
	if mgr.IsAuthenticated() {
		t.Fatalf("unreadable store must read as logged out")
	}
}

type failingStore struct{}

var errTest = errors.New("store unavailable")

func (failingStore) Load() (Session, error) { return Session{}, errTest }
func (failingStore) Save(Session) error     { return errTest }
func (failingStore) Clear() error           { return errTest }
