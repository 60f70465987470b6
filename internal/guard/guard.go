// Package guard gates navigation on the current authentication state. It is
// a pure function of (session, path); the console shells ask it again on
// every auth broadcast so a logout in any region moves the user off
// protected views without a restart.
package guard

import "strings"

// AuthReader is the slice of the session manager the guard consumes.
type AuthReader interface {
	IsAuthenticated() bool
}

// Subscriber registers a callback on auth-state broadcasts and returns its
// release func.
type Subscriber interface {
	Subscribe(func()) func()
}

// Decision is the outcome of guarding one path.
type Decision struct {
	Allow      bool
	RedirectTo string
}

var allow = Decision{Allow: true}

// Guard holds the route table of one console application.
type Guard struct {
	auth      AuthReader
	loginPath string
	homePath  string
	protected map[string]bool
	authOnly  map[string]bool
}

// New builds a guard. protectedPaths redirect to loginPath when logged out;
// loginPath and signupPath redirect to homePath when already logged in (the
// secondary guard, so a logged-in user is never stuck on the login view).
func New(auth AuthReader, loginPath, signupPath, homePath string, protectedPaths []string) *Guard {
	g := &Guard{
		auth:      auth,
		loginPath: loginPath,
		homePath:  homePath,
		protected: make(map[string]bool, len(protectedPaths)),
		authOnly:  map[string]bool{loginPath: true},
	}
	if signupPath != "" {
		g.authOnly[signupPath] = true
	}
	for _, p := range protectedPaths {
		g.protected[normalize(p)] = true
	}
	return g
}

// Decide evaluates the current auth state against path. No state is kept
// between calls.
func (g *Guard) Decide(path string) Decision {
	path = normalize(path)
	authed := g.auth.IsAuthenticated()

	if g.protected[path] && !authed {
		return Decision{RedirectTo: g.loginPath}
	}
	if g.authOnly[path] && authed {
		return Decision{RedirectTo: g.homePath}
	}
	return allow
}

// Bind re-evaluates the caller's current path on every auth broadcast and
// invokes navigate when the decision demands a redirect. The returned release
// func must be called when the owning shell unmounts.
func (g *Guard) Bind(events Subscriber, current func() string, navigate func(string)) func() {
	return events.Subscribe(func() {
		if d := g.Decide(current()); !d.Allow {
			navigate(d.RedirectTo)
		}
	})
}

func normalize(path string) string {
	if path == "" {
		return "/"
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return path
}
