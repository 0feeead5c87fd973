package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/ashureev/scamsafe/internal/voice"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// Detector classifies audio.
type Detector interface {
	Detect(req voice.Request) (voice.Result, error)
}

var _ Detector = (*voice.Detector)(nil)

type voiceRequest struct {
	Language    *string `json:"language" validate:"required"`
	AudioFormat *string `json:"audioFormat" validate:"required,oneof=mp3 wav m4a"`
	AudioBase64 *string `json:"audioBase64" validate:"required"`
}

type voiceResponse struct {
	Status         string         `json:"status"`
	Prediction     string         `json:"prediction"`
	Confidence     float64        `json:"confidence"`
	Language       string         `json:"language"`
	AudioFormat    string         `json:"audioFormat"`
	ProcessingTime string         `json:"processingTime"`
	Metadata       voice.Metadata `json:"metadata"`
}

const msgAudioTooLarge = "Audio file too large (>10MB)"

// VoiceHandler serves AI voice detection.
type VoiceHandler struct {
	detector Detector
	maxBody  int64
	validate *validator.Validate
}

// NewVoiceHandler creates a voice handler. maxAudio is the decoded audio
// limit; the request body may carry its base64 form plus envelope.
func NewVoiceHandler(detector Detector, maxAudio int) *VoiceHandler {
	if maxAudio <= 0 {
		maxAudio = voice.MaxAudioBytes
	}
	return &VoiceHandler{
		detector: detector,
		maxBody:  int64(maxAudio)/3*4 + defaultMaxRequestBodySize,
		validate: newValidator(),
	}
}

// RegisterRoutes mounts POST /detect-voice behind the given middleware.
func (h *VoiceHandler) RegisterRoutes(r chi.Router, mw ...func(http.Handler) http.Handler) {
	r.With(mw...).Post("/detect-voice", h.HandleDetect)
}

// HandleDetect handles POST /detect-voice.
func (h *VoiceHandler) HandleDetect(w http.ResponseWriter, r *http.Request) {
	var req voiceRequest
	fields, err := decodeAndValidate(w, r, h.validate, h.maxBody, &req)
	if errors.Is(err, errBodyTooLarge) {
		Error(w, http.StatusBadRequest, msgAudioTooLarge)
		return
	}
	if err != nil {
		ValidationError(w, err.Error(), fields)
		return
	}

	slog.Info("Received detection request", "language", *req.Language, "format", *req.AudioFormat)

	res, err := h.detector.Detect(voice.Request{
		Language:    *req.Language,
		AudioFormat: *req.AudioFormat,
		AudioBase64: *req.AudioBase64,
	})
	switch {
	case errors.Is(err, voice.ErrEmptyAudio):
		Error(w, http.StatusBadRequest, "Empty audio data")
		return
	case errors.Is(err, voice.ErrInvalidBase64):
		slog.Warn("Base64 decoding failed", "error", err)
		Error(w, http.StatusBadRequest, "Invalid Base64 string")
		return
	case errors.Is(err, voice.ErrAudioTooLarge):
		Error(w, http.StatusBadRequest, msgAudioTooLarge)
		return
	case err != nil:
		slog.Error("Voice detection failed", "error", err)
		Error(w, http.StatusInternalServerError, "detection failed")
		return
	}

	JSON(w, http.StatusOK, voiceResponse{
		Status:         "success",
		Prediction:     res.Prediction,
		Confidence:     res.Confidence,
		Language:       res.Language,
		AudioFormat:    res.AudioFormat,
		ProcessingTime: res.ProcessingTime,
		Metadata:       res.Metadata,
	})
}
