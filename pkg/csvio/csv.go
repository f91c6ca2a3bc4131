// Package csvio reads and writes staged CSV snapshots as models.Table.
package csvio

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/BartekS5/sap-etl/pkg/models"
	"github.com/BartekS5/sap-etl/pkg/utils"
)

var bomUTF8 = []byte{0xEF, 0xBB, 0xBF}

// Read parses CSV text into a table. The first row is the header; empty
// cells become nil. Rows shorter than the header are padded with nil and
// longer rows are truncated. A header with no data rows yields an empty
// table.
func Read(r io.Reader) (*models.Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return Parse(data)
}

// Parse is Read over an in-memory buffer.
func Parse(data []byte) (*models.Table, error) {
	data = bytes.TrimPrefix(data, bomUTF8)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty file: no header row found")
		}
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
	}

	t := models.NewTable(header...)
	line := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}

		rec := make(models.Record, len(header))
		for i, h := range header {
			if i >= len(row) || row[i] == "" {
				rec[h] = nil
				continue
			}
			rec[h] = row[i]
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

// Write encodes the table with a header row. Missing cells are written
// empty and dates as YYYY-MM-DD.
func Write(w io.Writer, t *models.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	row := make([]string, len(t.Columns))
	for _, r := range t.Rows {
		for i, c := range t.Columns {
			row[i] = utils.ToString(r[c])
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Encode is Write into a fresh buffer.
func Encode(t *models.Table) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
