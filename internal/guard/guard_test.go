package guard

import (
	"testing"

	"github.com/loan-lens/loanlens/internal/logging"
	"github.com/loan-lens/loanlens/internal/session"
)

type memStore struct {
	sess session.Session
}

func (m *memStore) Load() (session.Session, error) { return m.sess, nil }
func (m *memStore) Save(s session.Session) error   { m.sess = s; return nil }
func (m *memStore) Clear() error                   { m.sess = session.Session{}; return nil }

func adminGuard(mgr *session.Manager) *Guard {
	return New(mgr, "/login", "/signup", "/applications", []string{"/applications"})
}

func TestDecideLoggedOut(t *testing.T) {
	mgr := session.NewManager(&memStore{}, logging.Discard())
	g := adminGuard(mgr)

	if d := g.Decide("/applications"); d.Allow || d.RedirectTo != "/login" {
		t.Fatalf("protected view while logged out: %+v", d)
	}
	if d := g.Decide("/login"); !d.Allow {
		t.Fatalf("login view while logged out must render: %+v", d)
	}
	if d := g.Decide("/signup"); !d.Allow {
		t.Fatalf("signup view while logged out must render: %+v", d)
	}
}

func TestDecideLoggedIn(t *testing.T) {
	mgr := session.NewManager(&memStore{sess: session.Session{Token: "tok"}}, logging.Discard())
	g := adminGuard(mgr)

	if d := g.Decide("/applications"); !d.Allow {
		t.Fatalf("protected view while logged in must render: %+v", d)
	}
	if d := g.Decide("/applications/"); !d.Allow {
		t.Fatalf("trailing slash must not change the decision: %+v", d)
	}
	if d := g.Decide("/login"); d.Allow || d.RedirectTo != "/applications" {
		t.Fatalf("login view while logged in must redirect home: %+v", d)
	}
}

func TestBindRedirectsOnLogoutBroadcast(t *testing.T) {
	mgr := session.NewManager(&memStore{sess: session.Session{Token: "tok"}}, logging.Discard())
	g := adminGuard(mgr)

	current := "/applications"
	var navigatedTo string
	release := g.Bind(mgr, func() string { return current }, func(to string) {
		navigatedTo = to
		current = to
	})
	defer release()

	// Simulates the token being removed out from under the view, e.g. a
	// logout observed from another tab.
	if err := mgr.Logout(); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if navigatedTo != "/login" {
		t.Fatalf("expected redirect to /login, navigated to %q", navigatedTo)
	}

	// And back: a login broadcast moves the user off the login view.
	if err := mgr.Establish(session.Session{Token: "tok-2"}); err != nil {
		t.Fatalf("establish: %v", err)
	}
	if current != "/applications" {
		t.Fatalf("expected redirect home after login, at %q", current)
	}
}

func TestBindReleaseStopsReEvaluation(t *testing.T) {
	mgr := session.NewManager(&memStore{sess: session.Session{Token: "tok"}}, logging.Discard())
	g := adminGuard(mgr)

	var navigations int
	release := g.Bind(mgr, func() string { return "/applications" }, func(string) { navigations++ })
	release()

	if err := mgr.Logout(); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if navigations != 0 {
		t.Fatalf("released guard re-evaluated %d times", navigations)
	}
}
