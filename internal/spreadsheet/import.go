package spreadsheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/xuri/excelize/v2"

	"github.com/aanand-mishra/student-roster/internal/types"
)

// Importer reads uploaded tables. Now supplies the default enrollment
// date for rows that have none; nil means time.Now.
type Importer struct {
	Now func() time.Time
}

// Import parses data as a workbook or delimited text and maps each
// non-blank row after the header to a StudentInput.
//
// The format comes from filename's extension; files without a known
// extension are sniffed. Rows that fail to parse are skipped rather than
// failing the whole file.
func (im Importer) Import(filename string, data []byte) ([]types.StudentInput, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrUnreadable)
	}

	format, err := detect(filename, data)
	if err != nil {
		return nil, err
	}

	var rows [][]string
	switch format {
	case FormatXLSX:
		rows, err = readXLSX(data)
	case FormatCSV:
		rows, err = readCSV(data)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no header row", ErrUnreadable)
	}

	return im.mapRows(rows[0], rows[1:]), nil
}

// Import parses with a default Importer.
func Import(filename string, data []byte) ([]types.StudentInput, error) {
	return Importer{}.Import(filename, data)
}

func detect(filename string, data []byte) (Format, error) {
	if ext := filepath.Ext(filename); ext != "" {
		if f, err := ParseFormat(ext); err == nil && f != FormatPDF {
			return f, nil
		}
	}

	mt := mimetype.Detect(data)
	switch {
	case mt.Is("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"),
		mt.Is("application/zip"):
		return FormatXLSX, nil
	case mt.Is("text/csv"), mt.Is("text/plain"), mt.Is("text/tab-separated-values"):
		return FormatCSV, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, mt.String())
}

// readXLSX returns the rows of the first sheet.
func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrUnreadable)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	return rows, nil
}

// readCSV reads delimited text. Malformed lines are skipped; invalid
// UTF-8 is replaced; a leading BOM is dropped.
func readCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(sanitizeUTF8(data), []byte("\xef\xbb\xbf"))

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.Comma = sniffDelimiter(data)

	var rows [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				continue
			}
			return rows, fmt.Errorf("%w: %v", ErrUnreadable, err)
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

// sniffDelimiter picks ';' or tab over ',' when the header line clearly
// uses it, as spreadsheet tools in some locales do.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	best, count := ',', bytes.Count(line, []byte{','})
	for _, d := range []rune{';', '\t'} {
		if n := bytes.Count(line, []byte(string(d))); n > count {
			best, count = d, n
		}
	}
	return best
}

func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}
	return bytes.ToValidUTF8(data, []byte("\uFFFD"))
}

func (im Importer) mapRows(header []string, rows [][]string) []types.StudentInput {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}

	// lookup returns the cell of the first column present under the
	// display header, the field name or an alias. Empty cells fall through.
	lookup := func(rec []string, c Column) string {
		for _, key := range c.keys() {
			i, ok := idx[key]
			if !ok || i >= len(rec) {
				continue
			}
			if v := strings.TrimSpace(rec[i]); v != "" {
				return v
			}
		}
		return ""
	}

	now := time.Now
	if im.Now != nil {
		now = im.Now
	}
	today := now().Format(types.DateLayout)

	out := make([]types.StudentInput, 0, len(rows))
	for _, rec := range rows {
		if isEmptyRow(rec) {
			continue
		}

		in := types.StudentInput{
			Name:           lookup(rec, Columns[0]),
			Age:            parseAge(lookup(rec, Columns[1])),
			Course:         lookup(rec, Columns[2]),
			Status:         types.StatusActive,
			EnrollmentDate: lookup(rec, Columns[4]),
		}
		if raw := lookup(rec, Columns[3]); raw != "" {
			in.Status = types.ParseStatus(raw)
		}
		if in.EnrollmentDate == "" {
			in.EnrollmentDate = today
		}
		out = append(out, in)
	}
	return out
}

// parseAge reads the leading integer of s ("21", "21.0", "21 years"),
// or 0 when there is none.
func parseAge(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || end == 0 && (s[end] == '-' || s[end] == '+')) {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

func isEmptyRow(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
