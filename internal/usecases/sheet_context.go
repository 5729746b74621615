package usecases

import (
	"context"
	"fmt"
	"project_sheetbot/internal/entities"
	"project_sheetbot/internal/interfaces"
	"strings"

	waLog "go.mau.fi/whatsmeow/util/log"
)

// NoDataMarker replaces a section body when a range is empty or could not be read.
const NoDataMarker = "No data available in this sheet."

// FetchResult is the outcome of reading one range. Err != nil means the read
// failed; a nil Err with an empty Table means the range holds no data.
type FetchResult struct {
	Range entities.SheetRange
	Table entities.SheetTable
	Err   error
}

func (r FetchResult) Failed() bool {
	return r.Err != nil
}

// SheetContext reads ranges from the spreadsheet and renders them as prompt context.
type SheetContext struct {
	reader interfaces.SheetReader
	log    waLog.Logger
}

func NewSheetContext(reader interfaces.SheetReader, log waLog.Logger) *SheetContext {
	if log == nil {
		log = waLog.Noop
	}
	return &SheetContext{reader: reader, log: log}
}

// FetchRange reads a single range. Failures are logged and returned inside
// the result, never as a separate error.
func (s *SheetContext) FetchRange(ctx context.Context, rng entities.SheetRange) FetchResult {
	rows, err := s.reader.ReadRange(ctx, rng.Sheet, rng.Range)
	if err != nil {
		s.log.Errorf("Failed to read sheet '%s' range %s: %v", rng.Sheet, rng.Range, err)
		return FetchResult{Range: rng, Err: fmt.Errorf("read %s: %w", rng.A1(), err)}
	}
	return FetchResult{Range: rng, Table: entities.SheetTable{Rows: rows}}
}

// Aggregate fetches ranges sequentially, in order, and concatenates one
// rendered section per range.
func (s *SheetContext) Aggregate(ctx context.Context, ranges []entities.SheetRange) string {
	var sb strings.Builder
	for _, rng := range ranges {
		sb.WriteString(RenderSection(s.FetchRange(ctx, rng)))
	}
	return sb.String()
}

// RenderSection renders one range. Failed and empty results both render the
// no-data placeholder.
func RenderSection(res FetchResult) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("--- Data from sheet '%s' ---\n", res.Range.Sheet))

	if res.Failed() || res.Table.IsEmpty() {
		sb.WriteString(NoDataMarker)
	} else {
		headers := res.Table.Rows[0]
		sb.WriteString("Headers: " + strings.Join(headers, ", ") + "\n")

		rows := make([]string, 0, len(res.Table.Rows)-1)
		for _, row := range res.Table.Rows[1:] {
			rows = append(rows, "Row: "+strings.Join(row, ", "))
		}
		sb.WriteString(strings.Join(rows, "\n"))
	}

	sb.WriteString("\n\n")
	return sb.String()
}
