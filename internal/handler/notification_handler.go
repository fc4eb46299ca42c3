package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/crmkit/lead-capture/internal/alert"
	"github.com/crmkit/lead-capture/internal/domain"
	"github.com/crmkit/lead-capture/internal/feed"
	"github.com/crmkit/lead-capture/internal/notify"
)

// PushStatusSource reports the push feed's connection state.
type PushStatusSource interface {
	Status() feed.Status
}

// WatermarkSource reports the poll feed's progress.
type WatermarkSource interface {
	Watermark() time.Time
}

// NotificationHandler serves the notification panel API.
type NotificationHandler struct {
	store  *notify.Store
	toasts *notify.Presenter
	prefs  *alert.Preferences
	push   PushStatusSource
	poll   WatermarkSource
	logger *zap.Logger
}

func NewNotificationHandler(
	store *notify.Store,
	toasts *notify.Presenter,
	prefs *alert.Preferences,
	push PushStatusSource,
	poll WatermarkSource,
	logger *zap.Logger,
) *NotificationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationHandler{
		store:  store,
		toasts: toasts,
		prefs:  prefs,
		push:   push,
		poll:   poll,
		logger: logger,
	}
}

func (h *NotificationHandler) RegisterRoutes(app fiber.Router) {
	v1 := app.Group("/v1")

	v1.Get("/notifications", h.ListNotifications)
	v1.Post("/notifications/read-all", h.MarkAllRead)
	v1.Post("/notifications/:id/read", h.MarkRead)
	v1.Delete("/notifications", h.ClearAll)

	v1.Get("/toasts", h.ListToasts)
	v1.Delete("/toasts/:id", h.DismissToast)
	v1.Post("/toasts/:id/activate", h.ActivateToast)

	v1.Get("/preferences", h.GetPreferences)
	v1.Put("/preferences", h.UpdatePreferences)
}

func (h *NotificationHandler) ListNotifications(c *fiber.Ctx) error {
	records := h.store.Snapshot()

	feeds := fiber.Map{}
	if h.push != nil {
		feeds["push"] = fiber.Map{"status": h.push.Status()}
	}
	if h.poll != nil {
		feeds["poll"] = fiber.Map{"watermark": h.poll.Watermark()}
	}

	return c.JSON(fiber.Map{
		"data":        records,
		"unreadCount": h.store.UnreadCount(),
		"feeds":       feeds,
	})
}

func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.store.MarkRead(id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "notification not found")
		}
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	h.store.MarkAllRead()
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *NotificationHandler) ClearAll(c *fiber.Ctx) error {
	h.store.ClearAll()
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *NotificationHandler) ListToasts(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"data": h.toasts.Snapshot(),
	})
}

func (h *NotificationHandler) DismissToast(c *fiber.Ctx) error {
	h.toasts.Dismiss(c.Params("id"))
	return c.SendStatus(fiber.StatusNoContent)
}

// ActivateToast dismisses the toast and tells the caller which lead to
// open.
func (h *NotificationHandler) ActivateToast(c *fiber.Ctx) error {
	leadID, err := h.toasts.Activate(c.Params("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "toast not found")
		}
		return err
	}
	return c.JSON(fiber.Map{
		"leadId": leadID,
	})
}

func (h *NotificationHandler) GetPreferences(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"soundEnabled":   h.prefs.SoundEnabled(),
		"pushPermission": h.prefs.Permission(),
	})
}

type preferencesRequest struct {
	SoundEnabled   *bool   `json:"soundEnabled"`
	PushPermission *string `json:"pushPermission"`
}

func (h *NotificationHandler) UpdatePreferences(c *fiber.Ctx) error {
	var req preferencesRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.PushPermission != nil {
		permission, err := alert.ParsePermission(*req.PushPermission)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := h.prefs.SetPermission(permission); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
	}
	if req.SoundEnabled != nil {
		h.prefs.SetSoundEnabled(*req.SoundEnabled)
	}

	h.logger.Info("preferences updated",
		zap.Bool("soundEnabled", h.prefs.SoundEnabled()),
		zap.String("pushPermission", h.prefs.Permission().String()),
	)

	return c.JSON(fiber.Map{
		"soundEnabled":   h.prefs.SoundEnabled(),
		"pushPermission": h.prefs.Permission(),
	})
}
