// Package console carries the plumbing both terminal front-ends share:
// loading configuration, opening the session store, and keeping the current
// route in step with auth changes from other processes.
package console

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/loan-lens/loanlens/internal/api"
	"github.com/loan-lens/loanlens/internal/config"
	"github.com/loan-lens/loanlens/internal/guard"
	"github.com/loan-lens/loanlens/internal/infra"
	"github.com/loan-lens/loanlens/internal/logging"
	"github.com/loan-lens/loanlens/internal/session"
)

// Env bundles the shared dependencies of a console process. Logs go to a
// file under the state directory so stdout stays free for the UI.
type Env struct {
	Cfg      config.Config
	Logger   *slog.Logger
	Sessions *session.Manager
	Client   *api.Client

	logFile io.Closer
	closers []func() error
}

// Bootstrap loads configuration and assembles the session manager and API
// client for the named profile. Separate profiles keep the borrower and
// reviewer sessions apart while every process of one profile shares state.
func Bootstrap(ctx context.Context, profile string) (*Env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.StateDir, 0o700); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	logPath := filepath.Join(cfg.StateDir, profile+".log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	logger := logging.New(logFile, cfg.LogLevel)

	env := &Env{Cfg: cfg, Logger: logger, logFile: logFile}

	var store session.Store
	switch cfg.SessionBackend {
	case config.BackendRedis:
		client, err := infra.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logFile.Close()
			return nil, err
		}
		env.closers = append(env.closers, client.Close)
		store = session.NewRedisStore(client, profile)
	default:
		fileStore, err := session.NewFileStore(filepath.Join(cfg.StateDir, profile))
		if err != nil {
			logFile.Close()
			return nil, err
		}
		store = fileStore
	}

	env.Sessions = session.NewManager(store, logger)
	env.Client = api.NewClient(cfg.APIBaseURL, cfg.HTTPTimeout, env.Sessions, logger)

	return env, nil
}

// Close releases the store connection and the log file.
func (e *Env) Close() {
	for _, closeFn := range e.closers {
		if err := closeFn(); err != nil {
			e.Logger.Warn("close dependency", "error", err)
		}
	}
	if e.logFile != nil {
		e.logFile.Close()
	}
}

// Router tracks the console's current route and applies guard decisions the
// way the browser shell applies redirects. Navigation triggered by an auth
// broadcast goes through the same path as user-driven navigation.
type Router struct {
	guard   *guard.Guard
	current string
	onMove  func(from, to string)
}

// NewRouter starts at path and re-routes through g on every move.
func NewRouter(g *guard.Guard, path string, onMove func(from, to string)) *Router {
	r := &Router{guard: g, onMove: onMove}
	r.current = path
	r.Navigate(path)
	return r
}

// Current returns the route the console is on.
func (r *Router) Current() string {
	return r.current
}

// Navigate moves to path, following any guard redirect. It reports the route
// actually landed on.
func (r *Router) Navigate(path string) string {
	decision := r.guard.Decide(path)
	target := path
	if !decision.Allow {
		target = decision.RedirectTo
	}
	if target != r.current {
		from := r.current
		r.current = target
		if r.onMove != nil {
			r.onMove(from, target)
		}
	}
	return r.current
}

// Bind re-evaluates the current route whenever the session manager
// broadcasts an auth change, and returns a release function.
func (r *Router) Bind(events guard.Subscriber) func() {
	return r.guard.Bind(events, r.Current, func(to string) { r.Navigate(to) })
}
