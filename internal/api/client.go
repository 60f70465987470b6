// Package api is the HTTP/JSON client for the remote loan origination
// service. The remote system is the source of truth for every application
// record; this client never caches and never retries.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/loan-lens/loanlens/internal/ledger"
	"github.com/loan-lens/loanlens/internal/loan"
	"github.com/loan-lens/loanlens/internal/session"
)

const idempotencyKeyHeader = "Idempotency-Key"

// TokenSource supplies the persisted session at request time. session.Manager
// satisfies it.
type TokenSource interface {
	Current() session.Session
}

// Client talks to the remote API. Safe for use from a single UI goroutine;
// the underlying http.Client handles its own connection reuse.
type Client struct {
	base   string
	http   *http.Client
	tokens TokenSource
	log    *slog.Logger
}

// NewClient builds a client for the service at baseURL. The timeout is the
// only cancellation mechanism; callers do not abort in-flight requests.
func NewClient(baseURL string, timeout time.Duration, tokens TokenSource, log *slog.Logger) *Client {
	return &Client{
		base:   strings.TrimRight(baseURL, "/"),
		http:   &http.Client{Timeout: timeout},
		tokens: tokens,
		log:    log,
	}
}

// Credentials is the login payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupInput is the account creation payload.
type SignupInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Message     string `json:"message,omitempty"`
	AccessToken string `json:"access_token"`
	UserID      string `json:"user_id"`
	Name        string `json:"name"`
}

// User is the /api/me payload.
type User struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Login exchanges credentials for a session.
func (c *Client) Login(ctx context.Context, creds Credentials) (session.Session, error) {
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/api/login", creds, &resp, false); err != nil {
		return session.Session{}, err
	}
	return session.Session{Token: resp.AccessToken, UserID: resp.UserID, UserName: resp.Name}, nil
}

// Signup registers an account; the response logs the new user straight in.
func (c *Client) Signup(ctx context.Context, in SignupInput) (session.Session, error) {
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/api/signup", in, &resp, false); err != nil {
		return session.Session{}, err
	}
	name := resp.Name
	if name == "" {
		name = in.Name
	}
	return session.Session{Token: resp.AccessToken, UserID: resp.UserID, UserName: name}, nil
}

// Applications fetches the full collection (admin view).
func (c *Client) Applications(ctx context.Context) ([]loan.Application, error) {
	var apps []loan.Application
	if err := c.do(ctx, http.MethodGet, "/api/applications", nil, &apps, true); err != nil {
		return nil, err
	}
	return apps, nil
}

// MyApplications fetches the caller-scoped collection (client view).
func (c *Client) MyApplications(ctx context.Context) ([]loan.Application, error) {
	var apps []loan.Application
	if err := c.do(ctx, http.MethodGet, "/api/my-applications", nil, &apps, true); err != nil {
		return nil, err
	}
	return apps, nil
}

// Predict submits an application for scoring. Input is validated locally so
// an incomplete form never reaches the network.
func (c *Client) Predict(ctx context.Context, in loan.ApplicationInput) (loan.Application, error) {
	if err := in.Validate(); err != nil {
		return loan.Application{}, err
	}
	var app loan.Application
	if err := c.do(ctx, http.MethodPost, "/api/predict", in, &app, true); err != nil {
		return loan.Application{}, err
	}
	return app, nil
}

type statusUpdate struct {
	Status string `json:"status"`
	Note   string `json:"note,omitempty"`
}

// UpdateStatus submits an admin decision for one application.
func (c *Client) UpdateStatus(ctx context.Context, applicationID string, decision loan.AdminDecision, note string) error {
	path := fmt.Sprintf("/api/applications/%s/status", applicationID)
	return c.do(ctx, http.MethodPut, path, statusUpdate{Status: string(decision), Note: note}, nil, true)
}

type paymentSubmission struct {
	Amount float64 `json:"amount"`
	Method string  `json:"method"`
}

// SubmitPayment records a validated payment against its application.
func (c *Client) SubmitPayment(ctx context.Context, req ledger.PaymentRequest) error {
	path := fmt.Sprintf("/api/applications/%s/payment", req.ApplicationID)
	return c.do(ctx, http.MethodPost, path, paymentSubmission{Amount: req.Amount, Method: string(req.Method)}, nil, true)
}

// Me fetches the authenticated user's profile.
func (c *Client) Me(ctx context.Context) (User, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, "/api/me", nil, &u, true); err != nil {
		return User{}, err
	}
	return u, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, authed bool) error {
	var token string
	if authed {
		sess := c.tokens.Current()
		if !sess.Authenticated() {
			return ErrAuthMissing
		}
		token = sess.Token
	}

	var payload io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		payload = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, payload)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if method != http.MethodGet && method != http.MethodHead {
		// One key per invocation; the server replays the stored response if
		// the same submission slips through twice.
		req.Header.Set(idempotencyKeyHeader, uuid.New().String())
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("request failed", "method", method, "path", path, "error", err)
		return fmt.Errorf("%w: %v", ErrNetworkUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return &ServerError{Status: resp.StatusCode, Message: decodeErrorMessage(resp.Body)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// decodeErrorMessage pulls the server's error field out of a rejection body;
// some endpoints use message instead.
func decodeErrorMessage(r io.Reader) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r).Decode(&body); err != nil {
		return ""
	}
	if body.Error != "" {
		return body.Error
	}
	return body.Message
}
