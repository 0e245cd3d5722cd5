package transaction

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shunichi-ikebuchi/txledger/pkg/money"
)

var (
	// ErrInvalidClient is returned when the client column is not a 16-bit unsigned integer.
	ErrInvalidClient = errors.New("invalid client id")

	// ErrInvalidTransaction is returned when the tx column is not a 32-bit unsigned integer.
	ErrInvalidTransaction = errors.New("invalid transaction id")

	// ErrMissingAmount is returned when a deposit or withdrawal has no amount.
	ErrMissingAmount = errors.New("missing amount")
)

// Row is a transaction as it appears in tabular input, before validation.
type Row struct {
	Type   string
	Client string
	Tx     string
	Amount string
}

// Record converts the row into a typed Record.
// Any error here is an input-format violation, not a business rule rejection.
func (r Row) Record() (Record, error) {
	kind, err := ParseKind(r.Type)
	if err != nil {
		return nil, err
	}

	client, err := strconv.ParseUint(strings.TrimSpace(r.Client), 10, 16)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidClient, r.Client)
	}

	tx, err := strconv.ParseUint(strings.TrimSpace(r.Tx), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTransaction, r.Tx)
	}

	id := ID{ClientID: uint16(client), TransactionID: uint32(tx)}

	amount := money.Zero()
	if kind.CarriesAmount() {
		if strings.TrimSpace(r.Amount) == "" {
			return nil, fmt.Errorf("%w for %s %s", ErrMissingAmount, kind, id)
		}
		amount, err = money.Parse(r.Amount)
		if err != nil {
			return nil, fmt.Errorf("amount %q: %w", r.Amount, err)
		}
	}

	return New(kind, id, amount)
}
