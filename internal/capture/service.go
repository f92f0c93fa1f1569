package capture

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stocknote/stocknote/internal/auth"
	"github.com/stocknote/stocknote/internal/logger"
	"github.com/stocknote/stocknote/internal/store"
)

// ErrUnauthenticated is returned when no session is present.
var ErrUnauthenticated = errors.New("authentication required")

// ErrNotLinked is returned for standalone-mode users: saving through the
// capture pipeline requires a bound spreadsheet, by design of the onboarding
// flow, not as a validation afterthought.
var ErrNotLinked = errors.New("스프레드시트가 연결되어 있지 않습니다. 온보딩을 먼저 완료해주세요.")

// UserResolver resolves the session to a user row.
type UserResolver interface {
	Resolve(ctx context.Context, sess *auth.Session) (*store.User, error)
}

// TransactionStore is the slice of the transaction repository the pipeline
// needs.
type TransactionStore interface {
	Insert(ctx context.Context, tx *store.Transaction) (string, error)
	MarkSheetSynced(ctx context.Context, id string) error
}

// Mirror appends one confirmed transaction row to the user's spreadsheet.
type Mirror interface {
	Append(ctx context.Context, accessToken, spreadsheetID string, row []any) error
}

// Input is the human-confirmed (and possibly edited) extraction ready to be
// persisted. Free-text edits have already been coerced to typed fields.
type Input struct {
	Date     string
	Ticker   string
	Name     string
	Price    decimal.Decimal
	Quantity decimal.Decimal
	Type     store.TxType
}

// SaveResult reports the persistence outcome. A mirror failure does not show
// up here: the database write is the source of truth, and a DB-only save is
// deliberately indistinguishable from a fully mirrored one. The per-row
// sheet_synced flag is the only record of the difference.
type SaveResult struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transactionId,omitempty"`
	Error         string `json:"error,omitempty"`
}

// Service is the persistence half of the capture pipeline.
type Service struct {
	users  UserResolver
	txs    TransactionStore
	mirror Mirror
}

func NewService(users UserResolver, txs TransactionStore, mirror Mirror) *Service {
	return &Service{users: users, txs: txs, mirror: mirror}
}

// SaveTransaction durably writes the confirmed transaction and then mirrors
// it to the user's spreadsheet. Ordering is the one guarantee: the relational
// insert happens unconditionally before any external call. The mirror write
// is best effort; its failure is logged, the row stays sheet_synced=false,
// and the caller still sees success because the authoritative write landed.
// There is no dedup key, so a repeated call creates a second row.
func (s *Service) SaveTransaction(ctx context.Context, sess *auth.Session, in Input) (SaveResult, error) {
	log := logger.FromContext(ctx)

	if sess == nil {
		return SaveResult{}, ErrUnauthenticated
	}

	user, err := s.users.Resolve(ctx, sess)
	if err != nil {
		return SaveResult{}, fmt.Errorf("capture: resolving user: %w", err)
	}

	if user.SpreadsheetID == nil || *user.SpreadsheetID == "" {
		return SaveResult{}, ErrNotLinked
	}

	tradeDate, err := time.Parse("2006-01-02", in.Date)
	if err != nil {
		tradeDate = time.Now()
	}

	total := in.Price.Mul(in.Quantity)

	tx := &store.Transaction{
		UserID:      user.ID,
		Ticker:      in.Ticker,
		Type:        in.Type,
		Price:       in.Price,
		Quantity:    in.Quantity,
		Total:       total,
		TradeDate:   tradeDate,
		SheetSynced: false,
	}
	if in.Name != "" {
		tx.Name = &in.Name
	}

	id, err := s.txs.Insert(ctx, tx)
	if err != nil {
		return SaveResult{}, fmt.Errorf("capture: inserting transaction: %w", err)
	}

	if sess.AccessToken != "" {
		row := []any{
			in.Date,
			in.Ticker,
			in.Name,
			string(in.Type),
			in.Price.String(),
			in.Quantity.String(),
			total.String(),
		}
		if err := s.mirror.Append(ctx, sess.AccessToken, *user.SpreadsheetID, row); err != nil {
			log.Warn().
				Err(err).
				Str("transaction_id", id).
				Str("spreadsheet_id", *user.SpreadsheetID).
				Msg("Spreadsheet mirror write failed, transaction kept unsynced")
		} else if err := s.txs.MarkSheetSynced(ctx, id); err != nil {
			log.Warn().
				Err(err).
				Str("transaction_id", id).
				Msg("Failed to flag transaction as sheet-synced")
		}
	} else {
		log.Info().
			Str("transaction_id", id).
			Msg("No provider access token on session, skipping spreadsheet mirror")
	}

	return SaveResult{Success: true, TransactionID: id}, nil
}
