package identity

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/loan-lens/loanlens/internal/sim/token"
)

// Handler exposes the auth endpoints.
type Handler struct {
	service *Service
	secret  []byte
	ttl     time.Duration
}

// NewHandler constructs an auth HTTP handler that signs access tokens with
// the given secret.
func NewHandler(service *Service, secret []byte, ttl time.Duration) *Handler {
	return &Handler{service: service, secret: secret, ttl: ttl}
}

type credentialsRequest struct {
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

type profileResponse struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Signup handles account creation and signs the new user in.
func (h *Handler) Signup(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	user, err := h.service.Register(c.UserContext(), Credentials{Name: req.Name, Email: req.Email, Password: req.Password})
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return fiber.NewError(http.StatusConflict, "Email already registered")
		}
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	signed, err := token.Issue(user.ID, h.secret, h.ttl)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(authResponse{
		Message:     "User created successfully",
		AccessToken: signed,
		UserID:      user.ID,
		Name:        user.Name,
	})
}

// Login verifies credentials and issues an access token.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	user, err := h.service.Authenticate(c.UserContext(), Credentials{Email: req.Email, Password: req.Password})
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return fiber.NewError(http.StatusUnauthorized, "Invalid credentials")
		}
		return err
	}
	signed, err := token.Issue(user.ID, h.secret, h.ttl)
	if err != nil {
		return err
	}
	return c.JSON(authResponse{AccessToken: signed, UserID: user.ID, Name: user.Name})
}

// Me returns the profile of the authenticated user.
func (h *Handler) Me(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	user, err := h.service.Lookup(c.UserContext(), userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, "User not found")
		}
		return err
	}
	return c.JSON(profileResponse{ID: user.ID, Name: user.Name, Email: user.Email})
}
