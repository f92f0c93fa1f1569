package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stocknote/stocknote/internal/auth"
)

// ErrUserNotFound is returned when neither the id nor the email lookup matches.
var ErrUserNotFound = errors.New("user not found")

// User is a row in the users table. GoalSettings is the opaque, schema-versioned
// goal blob; callers must run it through goals.Migrate before use.
type User struct {
	ID            string
	Email         string
	Name          string
	SpreadsheetID *string
	GoalSettings  json.RawMessage
	CreatedAt     time.Time
}

// Users reads and writes the users table.
type Users struct {
	pool *pgxpool.Pool
}

func NewUsers(pool *pgxpool.Pool) *Users {
	return &Users{pool: pool}
}

const userColumns = `id, email, name, spreadsheet_id, goal_settings, created_at`

// Resolve finds the user for a session. The id lookup wins; the email lookup
// runs only when the id misses, never the reverse. Accounts created through
// different identity flows can disagree on id while sharing an email, so both
// paths are needed.
func (u *Users) Resolve(ctx context.Context, sess *auth.Session) (*User, error) {
	if sess == nil {
		return nil, ErrUserNotFound
	}

	if sess.UserID != "" {
		user, err := u.GetByID(ctx, sess.UserID)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
	}

	if sess.Email != "" {
		return u.GetByEmail(ctx, sess.Email)
	}

	return nil, ErrUserNotFound
}

// GetByID fetches a user by primary key.
func (u *Users) GetByID(ctx context.Context, id string) (*User, error) {
	return u.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByEmail fetches a user by email.
func (u *Users) GetByEmail(ctx context.Context, email string) (*User, error) {
	return u.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (u *Users) getOne(ctx context.Context, query string, arg any) (*User, error) {
	var user User
	err := u.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.SpreadsheetID,
		&user.GoalSettings,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("store: querying user: %w", err)
	}
	return &user, nil
}

// SaveGoalSettings replaces the goal blob for a user. The caller always writes
// the canonical shape, which permanently upgrades older rows on first write.
func (u *Users) SaveGoalSettings(ctx context.Context, userID string, settings json.RawMessage) error {
	tag, err := u.pool.Exec(ctx,
		`UPDATE users SET goal_settings = $2 WHERE id = $1`, userID, settings)
	if err != nil {
		return fmt.Errorf("store: saving goal settings: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetSpreadsheetID binds a spreadsheet to a user. An empty id unbinds it,
// returning the user to standalone mode.
func (u *Users) SetSpreadsheetID(ctx context.Context, userID, spreadsheetID string) error {
	var val *string
	if spreadsheetID != "" {
		val = &spreadsheetID
	}
	tag, err := u.pool.Exec(ctx,
		`UPDATE users SET spreadsheet_id = $2 WHERE id = $1`, userID, val)
	if err != nil {
		return fmt.Errorf("store: setting spreadsheet id: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}
