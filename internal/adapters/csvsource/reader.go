// Package csvsource reads the flat rental feed from a CSV file.
package csvsource

import (
	"bufio"
	"context"
	"encoding/csv"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"

	"rentals/internal/domain"
)

// ErrMissingHeader is returned for a file with no header record.
var ErrMissingHeader = errors.New("missing header")

// checkEvery is how many records are read between context checks.
const checkEvery = 1000

type Reader struct{}

var _ domain.RowSource = Reader{}

func New() Reader { return Reader{} }

// ReadRows loads the whole file. Empty cells, and cells past the end of a
// short record, are left out of the row.
func (Reader) ReadRows(ctx context.Context, path string) ([]domain.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "source not found")
	}
	defer f.Close()
	return Parse(ctx, f)
}

// Parse reads rows from an already opened feed.
func Parse(ctx context.Context, src io.Reader) ([]domain.Row, error) {
	r := csv.NewReader(stripUTF8BOM(bufio.NewReader(src)))
	r.FieldsPerRecord = -1
	r.ReuseRecord = true

	header, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	rows := []domain.Row{}
	for n := 0; ; n++ {
		if n%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// *csv.ParseError already names the line
			return nil, errors.Wrap(err, "parse feed")
		}
		if row := toRow(header, rec); len(row) > 0 {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func stripUTF8BOM(r *bufio.Reader) *bufio.Reader {
	b, err := r.Peek(3)
	if err == nil && len(b) == 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		_, _ = r.Discard(3)
	}
	return r
}

func readHeader(r *csv.Reader) ([]string, error) {
	h, err := r.Read()
	if err == io.EOF {
		return nil, ErrMissingHeader
	}
	if err != nil {
		return nil, errors.Wrap(err, "header")
	}
	out := make([]string, len(h))
	for i := range h {
		out[i] = strings.TrimSpace(h[i])
		if !utf8.ValidString(out[i]) {
			return nil, errors.Errorf("invalid header encoding in column %d", i+1)
		}
	}
	return out, nil
}

// toRow maps one record onto the header. A record with no non-empty cell
// yields an empty row, which the caller skips.
func toRow(header, rec []string) domain.Row {
	row := make(domain.Row, len(header))
	for i, name := range header {
		if i >= len(rec) || name == "" {
			continue
		}
		v := strings.TrimSpace(strings.ToValidUTF8(rec[i], "�"))
		if v == "" {
			continue
		}
		if _, dup := row[name]; !dup {
			row[name] = v
		}
	}
	return row
}
