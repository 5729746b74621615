package repository

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetRepository reads one spreadsheet with a service account. Read-only.
type SheetRepository struct {
	srv           *sheets.Service
	spreadsheetID string
}

func NewSheetRepository(ctx context.Context, spreadsheetID string, credentialsJSON []byte) (*SheetRepository, error) {
	srv, err := sheets.NewService(ctx,
		option.WithCredentialsJSON(credentialsJSON),
		option.WithScopes(sheets.SpreadsheetsReadonlyScope),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}
	return &SheetRepository{srv: srv, spreadsheetID: spreadsheetID}, nil
}

// Ping loads the spreadsheet metadata and returns its title.
func (r *SheetRepository) Ping(ctx context.Context) (string, error) {
	ss, err := r.srv.Spreadsheets.Get(r.spreadsheetID).Fields("properties.title").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to load spreadsheet %s: %w", r.spreadsheetID, err)
	}
	if ss.Properties == nil {
		return "", nil
	}
	return ss.Properties.Title, nil
}

// ReadRange returns the formatted cell values of sheetName!rangeSpec.
// An empty range yields no rows and no error.
func (r *SheetRepository) ReadRange(ctx context.Context, sheetName, rangeSpec string) ([][]string, error) {
	resp, err := r.srv.Spreadsheets.Values.Get(r.spreadsheetID, a1Notation(sheetName, rangeSpec)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to read %s!%s: %w", sheetName, rangeSpec, err)
	}
	return cellsToStrings(resp.Values), nil
}

// a1Notation quotes sheet names that are not plain identifiers.
func a1Notation(sheetName, rangeSpec string) string {
	plain := sheetName != ""
	for _, r := range sheetName {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			plain = false
			break
		}
	}
	if plain {
		return sheetName + "!" + rangeSpec
	}
	return "'" + strings.ReplaceAll(sheetName, "'", "''") + "'!" + rangeSpec
}

func cellsToStrings(values [][]interface{}) [][]string {
	if len(values) == 0 {
		return nil
	}
	rows := make([][]string, len(values))
	for i, row := range values {
		cells := make([]string, len(row))
		for j, cell := range row {
			if cell != nil {
				cells[j] = fmt.Sprint(cell)
			}
		}
		rows[i] = cells
	}
	return rows
}
