package imports

import (
	"github.com/xuri/excelize/v2"

	pkgerrors "github.com/coldrackhq/coldrack-backend/pkg/errors"
)

// RackTemplate builds the downloadable rack-content template with the fixed
// headers and two example rows.
func RackTemplate() ([]byte, error) {
	return buildTemplate(
		[]any{HeaderLine, HeaderRackName, HeaderProductCode, HeaderFloor, HeaderWeight, HeaderManufacturer},
		[][]any{
			{"A", "A01", "PRD-001", 1, 12.5, "콜드팜"},
			{"A", "A02", "PRD-002", 2, 8, "대관령식품"},
		},
	)
}

// ProductCodeTemplate builds the downloadable catalog template.
func ProductCodeTemplate() ([]byte, error) {
	return buildTemplate(
		[]any{HeaderCode, HeaderName, HeaderDescription, HeaderCategory},
		[][]any{
			{"PRD-001", "냉동 만두", "1kg 업소용", "냉동식품"},
		},
	)
}

func buildTemplate(headers []any, examples [][]any) ([]byte, error) {
	book := excelize.NewFile()
	defer book.Close()

	sheet := book.GetSheetName(0)
	if err := book.SetSheetRow(sheet, "A1", &headers); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write template header")
	}
	for i, example := range examples {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve template cell")
		}
		row := example
		if err := book.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write template row")
		}
	}

	buf, err := book.WriteToBuffer()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "serialize template")
	}
	return buf.Bytes(), nil
}
