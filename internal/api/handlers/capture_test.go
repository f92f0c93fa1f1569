package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/stocknote/stocknote/internal/auth"
	"github.com/stocknote/stocknote/internal/capture"
	"github.com/stocknote/stocknote/internal/imagestore"
	"github.com/stocknote/stocknote/internal/store"
)

type fakeAnalyzer struct {
	lastMode capture.Mode
	lastMIME string
	result   *capture.Extraction
	err      error
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, image []byte, mimeType string, mode capture.Mode) (*capture.Extraction, error) {
	f.lastMode = mode
	f.lastMIME = mimeType
	return f.result, f.err
}

type fakeResolver struct {
	user *store.User
}

func (f *fakeResolver) Resolve(ctx context.Context, sess *auth.Session) (*store.User, error) {
	if f.user == nil {
		return nil, store.ErrUserNotFound
	}
	return f.user, nil
}

type fakeTxStore struct {
	inserted *store.Transaction
	synced   []string
}

func (f *fakeTxStore) Insert(ctx context.Context, tx *store.Transaction) (string, error) {
	f.inserted = tx
	return "tx-1", nil
}

func (f *fakeTxStore) MarkSheetSynced(ctx context.Context, id string) error {
	f.synced = append(f.synced, id)
	return nil
}

type fakeMirror struct {
	rows [][]any
	err  error
}

func (f *fakeMirror) Append(ctx context.Context, accessToken, spreadsheetID string, row []any) error {
	if f.err != nil {
		return f.err
	}
	f.rows = append(f.rows, row)
	return nil
}

func newCaptureHandler(analyzer ScreenshotAnalyzer, service *capture.Service) *CaptureHandler {
	return NewCaptureHandler(analyzer, service, nil, nil, imagestore.NewArchive(""), zerolog.Nop())
}

func TestCaptureHandler_Analyze_BridgeMessage(t *testing.T) {
	fa := &fakeAnalyzer{result: &capture.Extraction{
		Date:     "2025-03-10",
		Ticker:   "005930",
		Price:    decimal.NewFromInt(70000),
		Quantity: decimal.NewFromInt(10),
		Type:     store.TxBuy,
	}}
	h := newCaptureHandler(fa, nil)

	image := base64.StdEncoding.EncodeToString([]byte("fake-png"))
	body := fmt.Sprintf(`{"type":"IMAGE_SELECTED","payload":{"base64":"data:image/png;base64,%s"},"id":"m-1"}`, image)

	rec := httptest.NewRecorder()
	h.Analyze(rec, authedRequest(http.MethodPost, "/api/capture/analyze", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if fa.lastMIME != "image/png" {
		t.Errorf("mime = %q, want image/png", fa.lastMIME)
	}
	if fa.lastMode != capture.ModeTrade {
		t.Errorf("mode = %q, want trade", fa.lastMode)
	}

	var resp struct {
		Success    bool                `json:"success"`
		Extraction *capture.Extraction `json:"extraction"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !resp.Success || resp.Extraction == nil {
		t.Fatalf("response = %+v, want success with extraction", resp)
	}
	if resp.Extraction.Ticker != "005930" {
		t.Errorf("ticker = %q, want 005930", resp.Extraction.Ticker)
	}
}

func TestCaptureHandler_Analyze_PlainBodyDividendMode(t *testing.T) {
	fa := &fakeAnalyzer{result: &capture.Extraction{Type: store.TxDividend}}
	h := newCaptureHandler(fa, nil)

	image := base64.StdEncoding.EncodeToString([]byte("fake-jpeg"))
	body := fmt.Sprintf(`{"base64":%q,"mode":"dividend"}`, image)

	rec := httptest.NewRecorder()
	h.Analyze(rec, authedRequest(http.MethodPost, "/api/capture/analyze", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if fa.lastMode != capture.ModeDividend {
		t.Errorf("mode = %q, want dividend", fa.lastMode)
	}
}

func TestCaptureHandler_Analyze_ExtractionFailureIsRetryable(t *testing.T) {
	fa := &fakeAnalyzer{err: errors.New("model timeout")}
	h := newCaptureHandler(fa, nil)

	image := base64.StdEncoding.EncodeToString([]byte("fake"))
	body := fmt.Sprintf(`{"base64":%q}`, image)

	rec := httptest.NewRecorder()
	h.Analyze(rec, authedRequest(http.MethodPost, "/api/capture/analyze", body))

	// Extraction failure is not an HTTP error: the client prompts a retry.
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Success    bool            `json:"success"`
		Extraction json.RawMessage `json:"extraction"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Success {
		t.Error("success = true, want false")
	}
	if string(resp.Extraction) != "null" {
		t.Errorf("extraction = %s, want null", resp.Extraction)
	}
}

func TestCaptureHandler_Analyze_NoImage(t *testing.T) {
	h := newCaptureHandler(&fakeAnalyzer{}, nil)

	rec := httptest.NewRecorder()
	h.Analyze(rec, authedRequest(http.MethodPost, "/api/capture/analyze", `{"type":"LOGOUT"}`))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCaptureHandler_SaveTransaction_CoercesFreeText(t *testing.T) {
	sheet := "sheet-1"
	txs := &fakeTxStore{}
	service := capture.NewService(
		&fakeResolver{user: &store.User{ID: "user-1", SpreadsheetID: &sheet}},
		txs,
		&fakeMirror{},
	)
	h := newCaptureHandler(&fakeAnalyzer{}, service)

	body := `{"date":"2025-03-10","ticker":"005930","name":"삼성전자","price":"70,000원","quantity":"10주","type":"buy"}`

	rec := httptest.NewRecorder()
	h.SaveTransaction(rec, authedRequest(http.MethodPost, "/api/transactions", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if txs.inserted == nil {
		t.Fatal("no transaction inserted")
	}
	if !txs.inserted.Price.Equal(decimal.NewFromInt(70000)) {
		t.Errorf("price = %s, want 70000", txs.inserted.Price)
	}
	if !txs.inserted.Total.Equal(decimal.NewFromInt(700000)) {
		t.Errorf("total = %s, want 700000", txs.inserted.Total)
	}
	if txs.inserted.Type != store.TxBuy {
		t.Errorf("type = %q, want BUY", txs.inserted.Type)
	}
}

func TestCaptureHandler_SaveTransaction_NotLinked(t *testing.T) {
	service := capture.NewService(
		&fakeResolver{user: &store.User{ID: "user-1"}},
		&fakeTxStore{},
		&fakeMirror{},
	)
	h := newCaptureHandler(&fakeAnalyzer{}, service)

	body := `{"date":"2025-03-10","ticker":"005930","price":1,"quantity":1,"type":"BUY"}`

	rec := httptest.NewRecorder()
	h.SaveTransaction(rec, authedRequest(http.MethodPost, "/api/transactions", body))

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}

	var resp struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Error != capture.ErrNotLinked.Error() {
		t.Errorf("error = %q, want the onboarding message", resp.Error)
	}
}

func TestCaptureHandler_SaveTransaction_MissingTicker(t *testing.T) {
	h := newCaptureHandler(&fakeAnalyzer{}, nil)

	rec := httptest.NewRecorder()
	h.SaveTransaction(rec, authedRequest(http.MethodPost, "/api/transactions", `{"date":"2025-03-10"}`))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
