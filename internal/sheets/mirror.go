// Package sheets mirrors confirmed transactions into the user's Google
// Sheet. The mirror is strictly best effort: callers treat a failed append
// as a logged, non-fatal event and never retry automatically. A durable
// outbox keyed by transaction id would close that gap; it does not exist yet.
package sheets

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

// Mirror appends transaction rows to a spreadsheet range using the user's
// delegated OAuth access token.
type Mirror struct {
	// Range is the A1-notation range rows are appended under.
	Range string
}

func NewMirror(appendRange string) *Mirror {
	return &Mirror{Range: appendRange}
}

// Append writes one row to the bound spreadsheet. The token is the per-user
// Google access token carried on the session; a fresh Sheets service is built
// per call because tokens differ per user and expire quickly.
func (m *Mirror) Append(ctx context.Context, accessToken, spreadsheetID string, row []any) error {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})

	svc, err := sheetsapi.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return fmt.Errorf("sheets: creating service: %w", err)
	}

	values := &sheetsapi.ValueRange{Values: [][]any{row}}

	_, err = svc.Spreadsheets.Values.
		Append(spreadsheetID, m.Range, values).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("sheets: appending row: %w", err)
	}

	return nil
}
