// Package transaction defines the ledger's transaction records.
package transaction

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shunichi-ikebuchi/txledger/pkg/money"
)

// ErrUnknownKind is returned when a record's type is not one of the supported kinds.
var ErrUnknownKind = errors.New("unknown transaction kind")

// Kind identifies the type of a transaction record.
type Kind string

const (
	KindDeposit    Kind = "deposit"
	KindWithdrawal Kind = "withdrawal"
	KindDispute    Kind = "dispute"
	KindResolve    Kind = "resolve"
	KindChargeback Kind = "chargeback"
)

// ParseKind parses a kind name case-insensitively.
func ParseKind(text string) (Kind, error) {
	kind := Kind(strings.ToLower(strings.TrimSpace(text)))
	switch kind {
	case KindDeposit, KindWithdrawal, KindDispute, KindResolve, KindChargeback:
		return kind, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, text)
	}
}

// ID identifies a transaction and the client it is addressed to.
// TransactionID is unique across the whole stream, not per client.
type ID struct {
	ClientID      uint16
	TransactionID uint32
}

func (id ID) String() string {
	return fmt.Sprintf("client=%d tx=%d", id.ClientID, id.TransactionID)
}

// Record is one of Deposit, Withdrawal, Dispute, Resolve or Chargeback.
type Record interface {
	Kind() Kind
	Identity() ID
	// Amount is the amount carried by the record itself. It is zero for
	// dispute, resolve and chargeback, which act on a referenced record.
	Amount() money.Amount

	sealed()
}

// Deposit credits a client's available funds.
type Deposit struct {
	ID    ID
	Value money.Amount
}

// Withdrawal debits a client's available funds.
type Withdrawal struct {
	ID    ID
	Value money.Amount
}

// Dispute places the funds of an earlier deposit or withdrawal on hold.
type Dispute struct {
	ID ID
}

// Resolve releases a disputed transaction's held funds.
type Resolve struct {
	ID ID
}

// Chargeback closes a dispute against the client and locks the account.
type Chargeback struct {
	ID ID
}

func (Deposit) Kind() Kind    { return KindDeposit }
func (Withdrawal) Kind() Kind { return KindWithdrawal }
func (Dispute) Kind() Kind    { return KindDispute }
func (Resolve) Kind() Kind    { return KindResolve }
func (Chargeback) Kind() Kind { return KindChargeback }

func (r Deposit) Identity() ID    { return r.ID }
func (r Withdrawal) Identity() ID { return r.ID }
func (r Dispute) Identity() ID    { return r.ID }
func (r Resolve) Identity() ID    { return r.ID }
func (r Chargeback) Identity() ID { return r.ID }

func (r Deposit) Amount() money.Amount    { return r.Value }
func (r Withdrawal) Amount() money.Amount { return r.Value }
func (Dispute) Amount() money.Amount      { return money.Zero() }
func (Resolve) Amount() money.Amount      { return money.Zero() }
func (Chargeback) Amount() money.Amount   { return money.Zero() }

func (Deposit) sealed()    {}
func (Withdrawal) sealed() {}
func (Dispute) sealed()    {}
func (Resolve) sealed()    {}
func (Chargeback) sealed() {}

// New builds a record of the given kind. The amount is ignored for kinds
// that do not carry one.
func New(kind Kind, id ID, amount money.Amount) (Record, error) {
	switch kind {
	case KindDeposit:
		return Deposit{ID: id, Value: amount}, nil
	case KindWithdrawal:
		return Withdrawal{ID: id, Value: amount}, nil
	case KindDispute:
		return Dispute{ID: id}, nil
	case KindResolve:
		return Resolve{ID: id}, nil
	case KindChargeback:
		return Chargeback{ID: id}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, string(kind))
	}
}

// CarriesAmount reports whether records of this kind carry their own amount.
func (k Kind) CarriesAmount() bool {
	return k == KindDeposit || k == KindWithdrawal
}
