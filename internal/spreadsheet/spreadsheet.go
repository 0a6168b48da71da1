// Package spreadsheet converts between student records and tabular files.
//
// Export writes one row per record, in the order the caller supplies, under
// a fixed column layout. Import reads the first sheet of an uploaded file
// back into StudentInput values; it never persists anything and never
// checks uniqueness; the caller validates and stores each row.
package spreadsheet

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aanand-mishra/student-roster/internal/types"
)

var (
	// ErrUnreadable means the upload could not be parsed as a table at all.
	ErrUnreadable = errors.New("spreadsheet: file is not readable as a table")

	// ErrUnsupportedFormat means the requested or detected format is not
	// one of xlsx, csv (import) or xlsx, csv, pdf (export).
	ErrUnsupportedFormat = errors.New("spreadsheet: unsupported format")
)

// Column ties an exported header to the record field it carries.
type Column struct {
	// Header is the display header written on export.
	Header string
	// Field is the canonical field name, accepted on import.
	Field string
	// Aliases are further headers accepted on import, from the
	// Portuguese-language exports of earlier releases.
	Aliases []string
}

// Columns is the fixed export layout. Import looks each column up by
// Header first, then by Field, then by Aliases.
var Columns = []Column{
	{Header: "Name", Field: "name", Aliases: []string{"Nome", "Nome Completo"}},
	{Header: "Age", Field: "age", Aliases: []string{"Idade"}},
	{Header: "Course", Field: "course", Aliases: []string{"Curso"}},
	{Header: "Status", Field: "status"},
	{Header: "Enrollment Date", Field: "enrollmentDate", Aliases: []string{"Data de Matrícula"}},
}

// keys returns the import lookup keys of c in priority order.
func (c Column) keys() []string {
	return append([]string{c.Header, c.Field}, c.Aliases...)
}

// Headers returns the display headers of Columns.
func Headers() []string {
	out := make([]string, len(Columns))
	for i, c := range Columns {
		out[i] = c.Header
	}
	return out
}

// row renders a record as display text in Columns order. Dates keep their
// stored ISO string.
func row(s types.Student) []string {
	return []string{
		s.Name,
		fmt.Sprintf("%d", s.Age),
		s.Course,
		string(s.Status),
		s.EnrollmentDate,
	}
}

// Format is an exchange format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
	FormatPDF  Format = "pdf"
)

// ParseFormat accepts a format name or file extension, case-insensitive.
func ParseFormat(raw string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(raw)), ".") {
	case "xlsx", "xlsm", "excel":
		return FormatXLSX, nil
	case "csv", "txt":
		return FormatCSV, nil
	case "pdf":
		return FormatPDF, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, raw)
}

// ContentType is the MIME type served for downloads.
func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

// Filename is the suggested download name.
func (f Format) Filename() string {
	return "students." + string(f)
}

// Export renders students in format f.
func Export(f Format, students []types.Student) ([]byte, error) {
	switch f {
	case FormatXLSX:
		return ExportXLSX(students)
	case FormatCSV:
		return ExportCSV(students)
	case FormatPDF:
		return ExportPDF(students)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
}
