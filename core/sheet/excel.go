package sheet

import (
	"io"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// Workbook sheet names accepted by the importers.
const (
	StudentsSheet = "Students"
	SubjectsSheet = "Subjects"
)

type SheetNotFoundError struct {
	Name string
}

func (e *SheetNotFoundError) Error() string {
	return `"` + e.Name + `" sheet not found`
}

type Workbook struct {
	f *excelize.File
}

func ReadWorkbook(r io.Reader) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "opening workbook")
	}
	return &Workbook{f: f}, nil
}

func (wb *Workbook) Close() error {
	return wb.f.Close()
}

// SheetRows returns the raw row grid of a named sheet.
func (wb *Workbook) SheetRows(name string) ([][]string, error) {
	found := false
	for _, s := range wb.f.GetSheetList() {
		if s == name {
			found = true
			break
		}
	}
	if !found {
		return nil, &SheetNotFoundError{Name: name}
	}

	rows, err := wb.f.GetRows(name)
	if err != nil {
		return nil, errors.Wrapf(err, "reading sheet %q", name)
	}
	return rows, nil
}
