package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/stocknote/stocknote/internal/api/middleware"
	"github.com/stocknote/stocknote/internal/auth"
	"github.com/stocknote/stocknote/internal/bridge"
	"github.com/stocknote/stocknote/internal/capture"
	"github.com/stocknote/stocknote/internal/imagestore"
	"github.com/stocknote/stocknote/internal/store"
)

// ScreenshotAnalyzer extracts trade fields from a screenshot.
type ScreenshotAnalyzer interface {
	Analyze(ctx context.Context, image []byte, mimeType string, mode capture.Mode) (*capture.Extraction, error)
}

// CaptureHandler handles the screenshot capture endpoints.
type CaptureHandler struct {
	analyzer ScreenshotAnalyzer
	service  *capture.Service
	users    *store.Users
	txs      *store.Transactions
	archive  *imagestore.Archive
	log      zerolog.Logger
}

// NewCaptureHandler creates a new capture handler.
func NewCaptureHandler(analyzer ScreenshotAnalyzer, service *capture.Service, users *store.Users, txs *store.Transactions, archive *imagestore.Archive, log zerolog.Logger) *CaptureHandler {
	return &CaptureHandler{
		analyzer: analyzer,
		service:  service,
		users:    users,
		txs:      txs,
		archive:  archive,
		log:      log,
	}
}

// Analyze handles POST /api/capture/analyze
//
// The body is either a raw bridge message (IMAGE_SELECTED / IMAGE_CAPTURED)
// forwarded from the WebView, or a plain {"base64": ..., "mode": ...} object
// from the web file picker. Extraction failures answer success=false with a
// null extraction so the client shows a retry prompt instead of an error page.
func (h *CaptureHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := auth.FromContext(ctx)
	if sess == nil {
		middleware.WriteError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	body, err := decodeAnalyzeRequest(r)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if h.archive.Enabled() {
		if uri, err := h.archive.Store(ctx, sess.UserID, body.image.Bytes, body.image.MIMEType); err != nil {
			h.log.Warn().Err(err).Msg("Screenshot archive write failed")
		} else {
			h.log.Debug().Str("uri", uri).Msg("Screenshot archived")
		}
	}

	extraction, err := h.analyzer.Analyze(ctx, body.image.Bytes, body.image.MIMEType, body.mode)
	if err != nil {
		h.log.Warn().Err(err).Msg("Screenshot extraction failed")
		middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"success":    false,
			"extraction": nil,
			"error":      "extraction failed",
		})
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"extraction": extraction,
	})
}

type analyzeRequest struct {
	image *bridge.Image
	mode  capture.Mode
}

func decodeAnalyzeRequest(r *http.Request) (*analyzeRequest, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return nil, errors.New("invalid request body")
	}

	mode := capture.ModeTrade
	if m := r.URL.Query().Get("mode"); m == string(capture.ModeDividend) {
		mode = capture.ModeDividend
	}

	// Bridge envelope first. The payload shape is shared, so a plain
	// {"base64": ...} body also decodes through ImagePayload.
	if msg, err := bridge.Decode(raw); err == nil && msg.IsImageEvent() {
		image, err := msg.ImagePayload()
		if err != nil {
			return nil, err
		}
		return &analyzeRequest{image: image, mode: mode}, nil
	}

	var plain struct {
		Base64 string `json:"base64"`
		Mode   string `json:"mode"`
	}
	if err := json.Unmarshal(raw, &plain); err != nil || plain.Base64 == "" {
		return nil, errors.New("request carries no image")
	}
	if plain.Mode == string(capture.ModeDividend) {
		mode = capture.ModeDividend
	}

	image, err := bridge.DecodeDataURL(plain.Base64)
	if err != nil {
		return nil, err
	}
	return &analyzeRequest{image: image, mode: mode}, nil
}

// SaveTransaction handles POST /api/transactions
//
// Price and quantity arrive as the user left them after editing the
// extraction, so they may be strings with currency symbols or separators.
// They are coerced the same fail-open way the extraction parser coerces model
// output.
func (h *CaptureHandler) SaveTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := auth.FromContext(ctx)

	var req struct {
		Date     string `json:"date"`
		Ticker   string `json:"ticker"`
		Name     string `json:"name"`
		Price    any    `json:"price"`
		Quantity any    `json:"quantity"`
		Type     string `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Ticker == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Ticker is required")
		return
	}

	in := capture.Input{
		Date:     req.Date,
		Ticker:   req.Ticker,
		Name:     req.Name,
		Price:    capture.NumberOrZero(req.Price),
		Quantity: capture.NumberOrZero(req.Quantity),
		Type:     store.ParseTxType(req.Type),
	}

	result, err := h.service.SaveTransaction(ctx, sess, in)
	if err != nil {
		switch {
		case errors.Is(err, capture.ErrUnauthenticated):
			middleware.WriteError(w, http.StatusUnauthorized, "Authentication required")
		case errors.Is(err, capture.ErrNotLinked):
			middleware.WriteError(w, http.StatusConflict, err.Error())
		case errors.Is(err, store.ErrUserNotFound):
			middleware.WriteError(w, http.StatusNotFound, "User not found")
		default:
			h.log.Error().Err(err).Msg("Failed to save transaction")
			middleware.WriteError(w, http.StatusInternalServerError, "Failed to save transaction")
		}
		return
	}

	middleware.WriteJSON(w, http.StatusOK, result)
}

// ListTransactions handles GET /api/transactions
func (h *CaptureHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := auth.FromContext(ctx)
	if sess == nil {
		middleware.WriteError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	user, err := h.users.Resolve(ctx, sess)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "User not found")
			return
		}
		h.log.Error().Err(err).Msg("Failed to resolve user")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list transactions")
		return
	}

	txs, err := h.txs.ListByUser(ctx, user.ID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list transactions")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"transactions": txs,
		"count":        len(txs),
	})
}
