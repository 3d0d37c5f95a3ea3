package sheets

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/timofeiryko/tg-marketing-bot/internal/domain"
)

// Exporter appends user rows to a Google Sheet using a service account.
type Exporter struct {
	svc           *sheetsapi.Service
	spreadsheetID string
	writeRange    string
}

// New builds a Sheets exporter from a service-account credentials file.
func New(ctx context.Context, credentialsPath, spreadsheetID, writeRange string) (*Exporter, error) {
	svc, err := sheetsapi.NewService(ctx,
		option.WithCredentialsFile(credentialsPath),
		option.WithScopes(sheetsapi.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Exporter{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		writeRange:    writeRange,
	}, nil
}

// AppendUser appends one row: id, first name, last name, username,
// telegram id, email, paid.
func (e *Exporter) AppendUser(ctx context.Context, u *domain.User) error {
	email := ""
	if u.Email != nil {
		email = *u.Email
	}
	paid := "No"
	if u.HasPaid {
		paid = "Yes"
	}

	vr := &sheetsapi.ValueRange{
		Values: [][]interface{}{
			{u.ID, u.FirstName, u.LastName, u.Username, u.TelegramID, email, paid},
		},
	}
	_, err := e.svc.Spreadsheets.Values.Append(e.spreadsheetID, e.writeRange, vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append row: %w", err)
	}
	return nil
}

// Nop is used when no spreadsheet is configured.
type Nop struct{}

// AppendUser discards the row.
func (Nop) AppendUser(context.Context, *domain.User) error { return nil }
