package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/mercastudio/storefront-admin/internal/modules/notification/domain"
	"github.com/mercastudio/storefront-admin/internal/modules/notification/engine"
	ws "github.com/mercastudio/storefront-admin/internal/modules/notification/infrastructure/websocket"
	"github.com/mercastudio/storefront-admin/internal/shared/utils"
)

// Ingestor accepts backend events for persistence. The insert trigger
// then feeds push delivery.
type Ingestor interface {
	Create(ctx context.Context, n *domain.Notification) error
}

// UnreadCounter serves the dashboard badge.
type UnreadCounter interface {
	UnreadCount(ctx context.Context) (int, error)
}

type NotificationHandler struct {
	engine  *engine.Engine
	ingest  Ingestor
	counter UnreadCounter
	hub     *ws.Hub
	logger  *slog.Logger
}

func NewNotificationHandler(eng *engine.Engine, ingest Ingestor, counter UnreadCounter, hub *ws.Hub, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{engine: eng, ingest: ingest, counter: counter, hub: hub, logger: logger}
}

// Subscribe attaches the session to the snapshot stream.
func (h *NotificationHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	ws.ServeWS(h.hub, w, r)
}

// ListVisible returns the bounded panel view.
func (h *NotificationHandler) ListVisible(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, map[string]any{"data": h.engine.VisibleItems()})
}

// Dismiss hides a notification; it reappears after the configured delay
// unless it gets read first.
func (h *NotificationHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid notification id", err)
		return
	}
	h.engine.Dismiss(id)
	w.WriteHeader(http.StatusNoContent)
}

// MarkRead persists the read flag. A failed mutation has already been
// rolled back by the engine; the error surfaces so the dashboard can
// offer a retry.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid notification id", err)
		return
	}
	if err := h.engine.MarkRead(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotificationNotFound) {
			utils.WriteError(w, http.StatusNotFound, "notification not found", nil)
			return
		}
		h.logger.Warn("mark read failed", "id", id, "error", err)
		utils.WriteError(w, http.StatusBadGateway, "failed to mark notification as read", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MarkAllRead persists the read flag for every tracked unread item.
// Partial failures report 502 with details; the failed items are
// already visible again.
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.MarkAllRead(r.Context()); err != nil {
		h.logger.Warn("mark all read failed", "error", err)
		utils.WriteError(w, http.StatusBadGateway, "failed to mark some notifications as read", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UnreadCount serves the badge.
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.counter.UnreadCount(r.Context())
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "failed to fetch unread count", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]int{"unread": count})
}

type ingestRequest struct {
	Type         domain.NotificationType `json:"type"`
	Title        string                  `json:"title"`
	Message      string                  `json:"message"`
	OrderID      *string                 `json:"order_id,omitempty"`
	CustomerName *string                 `json:"customer_name,omitempty"`
	ProductName  *string                 `json:"product_name,omitempty"`
	Amount       *float64                `json:"amount,omitempty"`
	Metadata     domain.Metadata         `json:"metadata,omitempty"`
}

// Ingest creates a notification record. Storefront services post their
// events here; the insert trigger relays them to live delivery.
func (h *NotificationHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if !req.Type.Valid() {
		utils.WriteError(w, http.StatusBadRequest, "unknown notification type", nil)
		return
	}
	if req.Title == "" || req.Message == "" {
		utils.WriteError(w, http.StatusBadRequest, "title and message are required", nil)
		return
	}

	n := &domain.Notification{
		ID:           uuid.New(),
		Type:         req.Type,
		Title:        req.Title,
		Message:      req.Message,
		OrderID:      req.OrderID,
		CustomerName: req.CustomerName,
		ProductName:  req.ProductName,
		Amount:       req.Amount,
		Metadata:     req.Metadata,
		CreatedAt:    time.Now().UTC(),
	}
	if err := h.ingest.Create(r.Context(), n); err != nil {
		h.logger.Warn("notification ingest failed", "type", req.Type, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to create notification", err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, n)
}
