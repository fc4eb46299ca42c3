package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/crmkit/lead-capture/internal/domain"
	"github.com/crmkit/lead-capture/internal/ratelimit"
	"github.com/crmkit/lead-capture/internal/repository"
	"github.com/crmkit/lead-capture/internal/service"
)

// corsHeaders are set on every /api/leads response, preflight included.
// The endpoint is meant to be called from arbitrary external websites.
var corsHeaders = map[string]string{
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Methods": "POST, OPTIONS",
	"Access-Control-Allow-Headers": "Content-Type, x-api-key",
	"Access-Control-Max-Age":       "86400",
}

type ingestRequest struct {
	Name         *string `json:"name"`
	FullName     *string `json:"full_name"`
	Email        *string `json:"email"`
	Phone        *string `json:"phone"`
	Services     *string `json:"services"`
	Notes        *string `json:"notes"`
	SourceDetail *string `json:"source_detail"`
}

// LeadHandler serves the public lead capture endpoint.
type LeadHandler struct {
	service *service.LeadService
	limiter ratelimit.RateLimiter
	apiKey  string
	logger  *zap.Logger
}

func NewLeadHandler(
	svc *service.LeadService,
	limiter ratelimit.RateLimiter,
	apiKey string,
	logger *zap.Logger,
) *LeadHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeadHandler{
		service: svc,
		limiter: limiter,
		apiKey:  apiKey,
		logger:  logger,
	}
}

func (h *LeadHandler) RegisterRoutes(app fiber.Router) {
	app.All("/api/leads", h.Capture)

	v1 := app.Group("/v1")
	v1.Get("/leads", h.List)
	v1.Get("/leads/:id", h.Get)
}

// Capture handles POST /api/leads. Method dispatch, auth and validation
// happen inside the handler so every response carries the CORS headers
// and the exact error contract external integrations rely on.
func (h *LeadHandler) Capture(c *fiber.Ctx) error {
	for key, value := range corsHeaders {
		c.Set(key, value)
	}

	if c.Method() == fiber.MethodOptions {
		return c.SendStatus(fiber.StatusNoContent)
	}

	if c.Method() != fiber.MethodPost {
		return failure(c, fiber.StatusMethodNotAllowed, "Method not allowed. Use POST.")
	}

	// An unset server key rejects everything rather than letting the
	// endpoint run open.
	if h.apiKey == "" {
		return failure(c, fiber.StatusInternalServerError,
			"API is not configured. Set CRM_API_KEY in environment variables.")
	}
	if c.Get("x-api-key") != h.apiKey {
		return failure(c, fiber.StatusUnauthorized,
			"Invalid or missing API key. Include x-api-key header.")
	}

	callerIP := clientIP(c)

	if h.limiter != nil {
		allowed, err := h.limiter.Allow(c.Context(), callerIP)
		if err != nil {
			h.logger.Warn("rate limiter unavailable, allowing request", zap.Error(err))
		} else if !allowed {
			return failure(c, fiber.StatusTooManyRequests, "Too many requests. Please slow down.")
		}
	}

	// An empty or malformed body falls through to field validation: a
	// missing body reports the first missing field, not a parse error.
	var req ingestRequest
	if err := c.BodyParser(&req); err != nil {
		req = ingestRequest{}
	}

	name := firstNonEmpty(req.Name, req.FullName)
	if name == "" {
		return failure(c, fiber.StatusBadRequest, `Missing required field: "name" (or "full_name").`)
	}

	email := trimmed(req.Email)
	phone := trimmed(req.Phone)
	if email == "" && phone == "" {
		return failure(c, fiber.StatusBadRequest, `At least one of "email" or "phone" is required.`)
	}
	if email != "" && !domain.ValidEmail(email) {
		return failure(c, fiber.StatusBadRequest, "Invalid email format.")
	}

	input := service.IngestInput{
		FullName:     name,
		Email:        req.Email,
		Phone:        req.Phone,
		Services:     req.Services,
		Notes:        req.Notes,
		SourceDetail: req.SourceDetail,
	}

	lead, err := h.service.Ingest(c.Context(), input, callerIP)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			// Field checks above mirror the service's rules; reaching
			// this branch means they drifted.
			h.logger.Error("handler and service validation disagree", zap.Error(err))
			return failure(c, fiber.StatusBadRequest, "Invalid email format.")
		}
		h.logger.Error("failed to create lead", zap.Error(err))
		return failure(c, fiber.StatusInternalServerError, "Failed to create lead. Please try again.")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Lead created successfully.",
		"lead": fiber.Map{
			"id":         lead.ID,
			"name":       lead.FullName,
			"email":      lead.Email,
			"status":     lead.Status,
			"created_at": lead.CreatedAt,
		},
	})
}

// List serves the panel's lead table with optional filters.
func (h *LeadHandler) List(c *fiber.Ctx) error {
	params := repository.ListParams{
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("pageSize", 50),
	}

	if raw := c.Query("status"); raw != "" {
		status, err := domain.ParseStatusFromString(raw)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		params.Status = &status
	}
	if raw := c.Query("source"); raw != "" {
		params.Source = &raw
	}

	leads, total, err := h.service.List(c.Context(), params)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data":  leads,
		"total": total,
		"page":  params.Page,
	})
}

// Get serves a single lead with its activity history.
func (h *LeadHandler) Get(c *fiber.Ctx) error {
	id := c.Params("id")

	lead, err := h.service.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "lead not found")
		}
		if errors.Is(err, domain.ErrValidation) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return err
	}

	activities, err := h.service.Activities(c.Context(), id)
	if err != nil {
		h.logger.Warn("failed to load lead activities", zap.Error(err), zap.String("leadId", id))
		activities = nil
	}

	return c.JSON(fiber.Map{
		"data":       lead,
		"activities": activities,
	})
}

func failure(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}

// clientIP prefers the first forwarded address, then x-real-ip, then the
// connection's remote address.
func clientIP(c *fiber.Ctx) string {
	if forwarded := c.Get("x-forwarded-for"); forwarded != "" {
		first := strings.TrimSpace(strings.Split(forwarded, ",")[0])
		if first != "" {
			return first
		}
	}
	if realIP := c.Get("x-real-ip"); realIP != "" {
		return realIP
	}
	return c.IP()
}

func firstNonEmpty(values ...*string) string {
	for _, v := range values {
		if v == nil {
			continue
		}
		if trimmed := strings.TrimSpace(*v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func trimmed(v *string) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(*v)
}
