package goals

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/stocknote/stocknote/internal/auth"
	"github.com/stocknote/stocknote/internal/store"
)

// Kind selects which of the two goal maps an edit applies to.
type Kind string

const (
	KindFinalAsset    Kind = "finalAsset"
	KindAnnualDeposit Kind = "annualDeposit"
)

// ErrUnauthenticated is returned when no session is present.
var ErrUnauthenticated = errors.New("authentication required")

// ErrUnknownKind is returned for a goal kind outside the two known maps.
var ErrUnknownKind = errors.New("unknown goal kind")

// UserStore is the slice of the user repository the goal service needs.
type UserStore interface {
	Resolve(ctx context.Context, sess *auth.Session) (*store.User, error)
	SaveGoalSettings(ctx context.Context, userID string, settings json.RawMessage) error
}

// Service applies goal edits on top of the migrated canonical settings.
type Service struct {
	users UserStore
	now   func() time.Time
}

func NewService(users UserStore) *Service {
	return &Service{users: users, now: time.Now}
}

// GetSettings returns the user's goal settings in canonical form.
func (s *Service) GetSettings(ctx context.Context, sess *auth.Session) (Settings, error) {
	if sess == nil {
		return Settings{}, ErrUnauthenticated
	}

	user, err := s.users.Resolve(ctx, sess)
	if err != nil {
		return Settings{}, fmt.Errorf("goals: resolving user: %w", err)
	}

	return migrateAt(user.GoalSettings, s.year()), nil
}

// year is the clock the service migrates and edits with. Both must come from
// the same source or a legacy scalar could land under a different year than
// the edit made in the same call.
func (s *Service) year() string {
	return strconv.Itoa(s.now().Year())
}

// SaveGoal sets or clears the current year's entry in one goal map and
// persists the full canonical blob. amount > 0 sets the entry; amount <= 0
// deletes the key entirely, which is how a goal is unset. Writing always
// stores the canonical shape, so older rows are upgraded permanently on the
// first edit.
func (s *Service) SaveGoal(ctx context.Context, sess *auth.Session, kind Kind, amount float64) (Settings, error) {
	if sess == nil {
		return Settings{}, ErrUnauthenticated
	}

	user, err := s.users.Resolve(ctx, sess)
	if err != nil {
		return Settings{}, fmt.Errorf("goals: resolving user: %w", err)
	}

	year := s.year()
	settings := migrateAt(user.GoalSettings, year)

	var target map[string]float64
	switch kind {
	case KindFinalAsset:
		target = settings.FinalAssetGoals
	case KindAnnualDeposit:
		target = settings.AnnualDepositGoals
	default:
		return Settings{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	if amount > 0 {
		target[year] = amount
	} else {
		delete(target, year)
	}

	blob, err := json.Marshal(settings)
	if err != nil {
		return Settings{}, fmt.Errorf("goals: encoding settings: %w", err)
	}

	if err := s.users.SaveGoalSettings(ctx, user.ID, blob); err != nil {
		return Settings{}, fmt.Errorf("goals: persisting settings: %w", err)
	}

	return settings, nil
}
