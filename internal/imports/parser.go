package imports

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	pkgerrors "github.com/coldrackhq/coldrack-backend/pkg/errors"
)

// Spreadsheet column headers. The dashboard ships Korean templates, so the
// parser matches the localized header text exactly.
const (
	HeaderLine         = "라인"
	HeaderRackName     = "랙이름"
	HeaderProductCode  = "품목코드"
	HeaderFloor        = "층"
	HeaderWeight       = "중량"
	HeaderManufacturer = "제조사"

	HeaderCode        = "코드"
	HeaderName        = "품목명"
	HeaderDescription = "설명"
	HeaderCategory    = "카테고리"
)

// RowError is one rejected spreadsheet row. Row is the 1-based spreadsheet
// row number, so the first data row under the header reports as row 2.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("행 %d: %s", e.Row, e.Message)
}

// rawRow is one spreadsheet data row keyed by header text.
type rawRow struct {
	number int
	cells  map[string]string
}

func (r rawRow) get(header string) string {
	return strings.TrimSpace(r.cells[header])
}

// readSheet loads the first sheet and returns its data rows keyed by the
// header row. Row numbers start at 2 to account for the header.
func readSheet(file io.Reader) ([]rawRow, error) {
	book, err := excelize.OpenReader(file)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "open spreadsheet")
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "spreadsheet has no sheets")
	}
	rows, err := book.GetRows(sheets[0])
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read sheet rows")
	}
	if len(rows) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "spreadsheet has no header row")
	}

	headers := make([]string, len(rows[0]))
	for i, cell := range rows[0] {
		headers[i] = strings.TrimSpace(cell)
	}

	parsed := make([]rawRow, 0, len(rows)-1)
	for i, cells := range rows[1:] {
		row := rawRow{number: i + 2, cells: make(map[string]string, len(headers))}
		empty := true
		for col, header := range headers {
			if header == "" {
				continue
			}
			var value string
			if col < len(cells) {
				value = cells[col]
			}
			if strings.TrimSpace(value) != "" {
				empty = false
			}
			row.cells[header] = value
		}
		if empty {
			continue
		}
		parsed = append(parsed, row)
	}
	return parsed, nil
}
