package entities

import (
	"fmt"
	"strings"
)

// SheetRange identifies a rectangular region of one sheet, e.g. JUMLAH!C4:D.
type SheetRange struct {
	Sheet string
	Range string
}

// A1 returns the range in A1 notation accepted by the Sheets API.
func (r SheetRange) A1() string {
	return r.Sheet + "!" + r.Range
}

func (r SheetRange) String() string {
	return r.A1()
}

// ParseSheetRange splits "Sheet Name!A2:Z" on the last '!'.
func ParseSheetRange(s string) (SheetRange, error) {
	s = strings.TrimSpace(s)
	idx := strings.LastIndex(s, "!")
	if idx <= 0 || idx == len(s)-1 {
		return SheetRange{}, fmt.Errorf("invalid sheet range %q, expected Sheet!Range", s)
	}
	return SheetRange{
		Sheet: strings.TrimSpace(s[:idx]),
		Range: strings.TrimSpace(s[idx+1:]),
	}, nil
}

// SheetTable holds rows of cell strings. The first row is conventionally the header.
type SheetTable struct {
	Rows [][]string
}

func (t SheetTable) IsEmpty() bool {
	return len(t.Rows) == 0
}

// Cell returns the cell at (row, col) and whether it exists.
func (t SheetTable) Cell(row, col int) (string, bool) {
	if row < 0 || row >= len(t.Rows) {
		return "", false
	}
	if col < 0 || col >= len(t.Rows[row]) {
		return "", false
	}
	return t.Rows[row][col], true
}
