package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/loan-lens/loanlens/internal/config"
	"github.com/loan-lens/loanlens/internal/loan"
	"github.com/loan-lens/loanlens/internal/logging"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Config{
		AppName:        "loanlens-sim-test",
		JWTSecret:      "test-secret",
		TokenTTL:       time.Hour,
		IdempotencyTTL: time.Minute,
	}
	srv, err := New(cfg, nil, nil, logging.Discard())
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path, token string, body any, status int, out any) {
	t.Helper()
	var payload bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&payload).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &payload)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.App().Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != status {
		t.Fatalf("%s %s: expected %d, got %d", method, path, status, resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decode response: %v", method, path, err)
		}
	}
}

type authBody struct {
	AccessToken string `json:"access_token"`
	UserID      string `json:"user_id"`
	Name        string `json:"name"`
}

type errorBody struct {
	Error string `json:"error"`
}

func signup(t *testing.T, srv *Server, name, email string) authBody {
	t.Helper()
	var auth authBody
	doJSON(t, srv, http.MethodPost, "/api/signup", "",
		map[string]string{"name": name, "email": email, "password": "hunter22"},
		http.StatusCreated, &auth)
	if auth.AccessToken == "" || auth.UserID == "" {
		t.Fatalf("signup returned incomplete auth payload: %+v", auth)
	}
	return auth
}

func TestSignupAndLogin(t *testing.T) {
	srv := testServer(t)

	auth := signup(t, srv, "Amina", "amina@example.com")
	if auth.Name != "Amina" {
		t.Fatalf("expected name Amina, got %q", auth.Name)
	}

	var dup errorBody
	doJSON(t, srv, http.MethodPost, "/api/signup", "",
		map[string]string{"name": "Amina", "email": "amina@example.com", "password": "hunter22"},
		http.StatusConflict, &dup)
	if dup.Error == "" {
		t.Fatalf("expected error body on duplicate signup")
	}

	var login authBody
	doJSON(t, srv, http.MethodPost, "/api/login", "",
		map[string]string{"email": "amina@example.com", "password": "hunter22"},
		http.StatusOK, &login)
	if login.UserID != auth.UserID {
		t.Fatalf("login user %s does not match signup user %s", login.UserID, auth.UserID)
	}

	var denied errorBody
	doJSON(t, srv, http.MethodPost, "/api/login", "",
		map[string]string{"email": "amina@example.com", "password": "wrong"},
		http.StatusUnauthorized, &denied)
	if denied.Error != "Invalid credentials" {
		t.Fatalf("expected Invalid credentials, got %q", denied.Error)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv := testServer(t)

	var body errorBody
	doJSON(t, srv, http.MethodGet, "/api/applications", "", nil, http.StatusUnauthorized, &body)
	if body.Error == "" {
		t.Fatalf("expected error body for missing token")
	}
	doJSON(t, srv, http.MethodGet, "/api/me", "garbage-token", nil, http.StatusUnauthorized, nil)
}

func TestApplicationLifecycle(t *testing.T) {
	srv := testServer(t)
	borrower := signup(t, srv, "Amina", "amina@example.com")
	reviewer := signup(t, srv, "Joseph", "joseph@example.com")

	var app loan.Application
	doJSON(t, srv, http.MethodPost, "/api/predict", borrower.AccessToken,
		map[string]any{
			"amount":        50000,
			"duration":      12,
			"monthlyIncome": 120000,
			"creditHistory": "good",
			"mobileMoneyHistory": map[string]any{
				"averageBalance":       45000,
				"transactionFrequency": 30,
			},
		},
		http.StatusOK, &app)
	if app.ID == "" || app.Status != loan.StatusPending {
		t.Fatalf("expected scored pending application, got %+v", app)
	}
	if app.RiskScore == nil || app.Explanation == nil {
		t.Fatalf("expected risk score and explanation, got %+v", app)
	}

	var mine []loan.Application
	doJSON(t, srv, http.MethodGet, "/api/my-applications", borrower.AccessToken, nil, http.StatusOK, &mine)
	if len(mine) != 1 || mine[0].ID != app.ID {
		t.Fatalf("expected my-applications to list the submission, got %+v", mine)
	}

	statusPath := fmt.Sprintf("/api/applications/%s/status", app.ID)

	var badStatus errorBody
	doJSON(t, srv, http.MethodPut, statusPath, reviewer.AccessToken,
		map[string]string{"status": "fully_paid"}, http.StatusBadRequest, &badStatus)
	if badStatus.Error != "Invalid status" {
		t.Fatalf("expected Invalid status, got %q", badStatus.Error)
	}

	var approved loan.Application
	doJSON(t, srv, http.MethodPut, statusPath, reviewer.AccessToken,
		map[string]string{"status": "approved", "note": "income verified"}, http.StatusOK, &approved)
	if approved.Status != loan.StatusApproved || approved.AdminNote != "income verified" {
		t.Fatalf("expected approved with note, got %+v", approved)
	}

	var missing errorBody
	doJSON(t, srv, http.MethodPut, "/api/applications/does-not-exist/status", reviewer.AccessToken,
		map[string]string{"status": "approved"}, http.StatusNotFound, &missing)
	if missing.Error != "Application not found" {
		t.Fatalf("expected Application not found, got %q", missing.Error)
	}

	paymentPath := fmt.Sprintf("/api/applications/%s/payment", app.ID)

	var partial loan.Application
	doJSON(t, srv, http.MethodPost, paymentPath, borrower.AccessToken,
		map[string]any{"amount": 20000, "method": "mobile_money"}, http.StatusOK, &partial)
	if partial.Status != loan.StatusPartiallyPaid || partial.TotalPaid != 20000 {
		t.Fatalf("expected partially_paid with totalPaid 20000, got %+v", partial)
	}

	var overpaid errorBody
	doJSON(t, srv, http.MethodPost, paymentPath, borrower.AccessToken,
		map[string]any{"amount": 30002}, http.StatusBadRequest, &overpaid)
	if overpaid.Error == "" {
		t.Fatalf("expected error body for overpayment")
	}

	var settled loan.Application
	doJSON(t, srv, http.MethodPost, paymentPath, borrower.AccessToken,
		map[string]any{"amount": 30000}, http.StatusOK, &settled)
	if settled.Status != loan.StatusFullyPaid {
		t.Fatalf("expected fully_paid, got %s", settled.Status)
	}

	// The reviewer cannot pay someone else's loan.
	doJSON(t, srv, http.MethodPost, paymentPath, reviewer.AccessToken,
		map[string]any{"amount": 10}, http.StatusForbidden, nil)
}
