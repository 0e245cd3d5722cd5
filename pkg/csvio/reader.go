// Package csvio reads transaction records from CSV and writes account summaries back as CSV.
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shunichi-ikebuchi/txledger/pkg/ledger"
	"github.com/shunichi-ikebuchi/txledger/pkg/transaction"
)

// ErrMissingColumn is returned when the header lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// Column names of the input header.
const (
	ColumnType   = "type"
	ColumnClient = "client"
	ColumnTx     = "tx"
	ColumnAmount = "amount"
)

// Reader decodes transaction records from CSV input with a header row.
// Whitespace around fields is ignored and the amount column may be absent
// on rows that do not need it.
type Reader struct {
	csv     *csv.Reader
	columns map[string]int
}

// NewReader creates a Reader on top of in.
func NewReader(in io.Reader) *Reader {
	r := csv.NewReader(in)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.ReuseRecord = true

	return &Reader{csv: r}
}

// Read returns the next record, or io.EOF when the input is exhausted.
func (r *Reader) Read() (transaction.Record, error) {
	if r.columns == nil {
		if err := r.readHeader(); err != nil {
			return nil, err
		}
	}

	for {
		fields, err := r.csv.Read()
		if err != nil {
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
		if isBlank(fields) {
			continue
		}

		line, _ := r.csv.FieldPos(0)
		record, err := r.row(fields).Record()
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		return record, nil
	}
}

func (r *Reader) readHeader() error {
	fields, err := r.csv.Read()
	if err != nil {
		if err == io.EOF {
			return io.EOF
		}
		return fmt.Errorf("failed to read header: %w", err)
	}

	columns := make(map[string]int, len(fields))
	for i, field := range fields {
		columns[strings.ToLower(strings.TrimSpace(field))] = i
	}

	for _, required := range []string{ColumnType, ColumnClient, ColumnTx} {
		if _, ok := columns[required]; !ok {
			return fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}

	r.columns = columns
	return nil
}

func (r *Reader) row(fields []string) transaction.Row {
	return transaction.Row{
		Type:   r.field(fields, ColumnType),
		Client: r.field(fields, ColumnClient),
		Tx:     r.field(fields, ColumnTx),
		Amount: r.field(fields, ColumnAmount),
	}
}

func (r *Reader) field(fields []string, column string) string {
	i, ok := r.columns[column]
	if !ok || i >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[i])
}

func isBlank(fields []string) bool {
	for _, field := range fields {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

// Ingest applies every record in the input to store, in order.
// It stops at the first malformed record; business rule rejections are not errors.
func Ingest(in io.Reader, store *ledger.Store) (int, error) {
	reader := NewReader(in)

	count := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return count, nil
		}
		if err != nil {
			return count, err
		}

		store.Apply(record)
		count++
	}
}
