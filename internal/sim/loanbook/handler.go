package loanbook

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/loan-lens/loanlens/internal/ledger"
	"github.com/loan-lens/loanlens/internal/loan"
)

// Handler exposes the application endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a loanbook HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type statusRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

type paymentRequest struct {
	Amount float64 `json:"amount"`
	Method string  `json:"method"`
}

// Predict scores a submitted application and returns the stored record.
func (h *Handler) Predict(c *fiber.Ctx) error {
	var in loan.ApplicationInput
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	app, err := h.service.Submit(c.UserContext(), callerID(c), in)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(app)
}

// List returns every application for the review queue.
func (h *Handler) List(c *fiber.Ctx) error {
	apps, err := h.service.All(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(emptyIfNil(apps))
}

// ListMine returns the caller's applications.
func (h *Handler) ListMine(c *fiber.Ctx) error {
	apps, err := h.service.ByUser(c.UserContext(), callerID(c))
	if err != nil {
		return err
	}
	return c.JSON(emptyIfNil(apps))
}

// UpdateStatus records a reviewer decision on one application.
func (h *Handler) UpdateStatus(c *fiber.Ctx) error {
	var req statusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	app, err := h.service.UpdateStatus(c.UserContext(), c.Params("id"), req.Status, req.Note, callerID(c))
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidStatus):
			return fiber.NewError(http.StatusBadRequest, "Invalid status")
		case errors.Is(err, ErrNotFound):
			return fiber.NewError(http.StatusNotFound, "Application not found")
		}
		return err
	}
	return c.JSON(app)
}

// RecordPayment applies a borrower payment to one application.
func (h *Handler) RecordPayment(c *fiber.Ctx) error {
	var req paymentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	app, err := h.service.RecordPayment(c.UserContext(), c.Params("id"), callerID(c), req.Amount, req.Method)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return fiber.NewError(http.StatusNotFound, "Application not found")
		case errors.Is(err, ErrForbidden):
			return fiber.NewError(http.StatusForbidden, "Not your application")
		case errors.Is(err, ErrNotPayable),
			errors.Is(err, ledger.ErrInvalidAmount),
			errors.Is(err, ledger.ErrExceedsBalance),
			errors.Is(err, ledger.ErrInvalidMethod):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		return err
	}
	return c.JSON(app)
}

func callerID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}

func emptyIfNil(apps []loan.Application) []loan.Application {
	if apps == nil {
		return []loan.Application{}
	}
	return apps
}
