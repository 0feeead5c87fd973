package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ashureev/scamsafe/internal/domain"
	"github.com/ashureev/scamsafe/internal/honeypot"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// MessageHandler processes one conversation turn.
type MessageHandler interface {
	HandleMessage(ctx context.Context, conv domain.Conversation) (honeypot.Outcome, error)
}

var _ MessageHandler = (*honeypot.Service)(nil)

type messageBody struct {
	Sender    *string `json:"sender" validate:"required"`
	Text      *string `json:"text" validate:"required"`
	Timestamp *int64  `json:"timestamp" validate:"required"`
}

func (m messageBody) toDomain() domain.InboundMessage {
	var msg domain.InboundMessage
	if m.Sender != nil {
		msg.Sender = *m.Sender
	}
	if m.Text != nil {
		msg.Text = *m.Text
	}
	if m.Timestamp != nil {
		msg.Timestamp = *m.Timestamp
	}
	return msg
}

type webhookRequest struct {
	SessionID           string                  `json:"sessionId" validate:"required"`
	Message             *messageBody            `json:"message" validate:"required"`
	ConversationHistory []messageBody           `json:"conversationHistory" validate:"dive"`
	Metadata            *domain.ChannelMetadata `json:"metadata"`
}

type webhookResponse struct {
	Status string `json:"status"`
	Reply  string `json:"reply"`
}

// WebhookHandler serves the honeypot chat webhook.
type WebhookHandler struct {
	svc      MessageHandler
	validate *validator.Validate
}

// NewWebhookHandler creates a webhook handler.
func NewWebhookHandler(svc MessageHandler) *WebhookHandler {
	return &WebhookHandler{svc: svc, validate: newValidator()}
}

// RegisterRoutes mounts POST /webhook behind the given middleware.
func (h *WebhookHandler) RegisterRoutes(r chi.Router, mw ...func(http.Handler) http.Handler) {
	r.With(mw...).Post("/webhook", h.HandleWebhook)
}

// HandleWebhook handles POST /webhook.
func (h *WebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	var req webhookRequest
	fields, err := decodeAndValidate(w, r, h.validate, defaultMaxRequestBodySize, &req)
	if errors.Is(err, errBodyTooLarge) {
		Error(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	if err != nil {
		ValidationError(w, err.Error(), fields)
		return
	}

	conv := domain.Conversation{
		SessionID: req.SessionID,
		Message:   req.Message.toDomain(),
	}
	for _, m := range req.ConversationHistory {
		conv.History = append(conv.History, m.toDomain())
	}
	if req.Metadata != nil {
		conv.Metadata = *req.Metadata
	}

	out, err := h.svc.HandleMessage(r.Context(), conv)
	if err != nil {
		slog.Error("Webhook processing failed", "session_id", req.SessionID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to process message")
		return
	}

	JSON(w, http.StatusOK, webhookResponse{Status: "success", Reply: out.Reply})
}
