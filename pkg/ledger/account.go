package ledger

import (
	"github.com/shunichi-ikebuchi/txledger/pkg/money"
	"github.com/shunichi-ikebuchi/txledger/pkg/transaction"
)

// Status is the lifecycle state of an account.
type Status uint8

const (
	// StatusActive is the initial state of every account.
	StatusActive Status = iota
	// StatusLocked is entered after a chargeback and never left.
	StatusLocked
	// StatusUnknown is reserved for transactions that cannot be attributed to
	// an account safely. No transition produces it yet.
	StatusUnknown
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusLocked:
		return "locked"
	default:
		return "unknown"
	}
}

// Account holds the balances of one client.
type Account struct {
	clientID  uint16
	available money.Amount
	held      money.Amount
	status    Status
}

func newAccount(clientID uint16) *Account {
	return &Account{
		clientID:  clientID,
		available: money.Zero(),
		held:      money.Zero(),
		status:    StatusActive,
	}
}

// ClientID returns the id of the client owning the account.
func (a *Account) ClientID() uint16 { return a.clientID }

// Available returns the funds the client may withdraw or have disputed.
func (a *Account) Available() money.Amount { return a.available }

// Held returns the funds frozen by open disputes.
func (a *Account) Held() money.Amount { return a.held }

// Total returns available plus held funds.
func (a *Account) Total() money.Amount { return a.available.Add(a.held) }

// Status returns the account's lifecycle state.
func (a *Account) Status() Status { return a.status }

// Locked reports whether the account has suffered a chargeback.
func (a *Account) Locked() bool { return a.status == StatusLocked }

// apply mutates the balances for a record the store has already accepted.
// disputed is the amount of the referenced transaction for dispute, resolve
// and chargeback; it is ignored for deposits and withdrawals.
// A non-empty Rejection means the balances were left untouched.
func (a *Account) apply(record transaction.Record, disputed money.Amount) Rejection {
	switch r := record.(type) {
	case transaction.Deposit:
		// Disputes and releases only move funds between available and held,
		// so a total that fits keeps every later sum in range.
		if _, ok := a.Total().CheckedAdd(r.Value); !ok {
			return RejectOverflow
		}
		a.available = a.available.Add(r.Value)

	case transaction.Withdrawal:
		// Strictly less: a withdrawal of the entire available balance is refused.
		if !r.Value.Less(a.available) {
			return RejectInsufficientFunds
		}
		a.available = a.available.Sub(r.Value)

	case transaction.Dispute:
		moved := money.Min(a.available, disputed)
		a.available = a.available.Sub(moved)
		a.held = a.held.Add(moved)

	case transaction.Resolve:
		a.release(disputed)

	case transaction.Chargeback:
		if disputed.IsPositive() {
			a.status = StatusLocked
		}
		a.release(disputed)
	}

	return ""
}

// release moves up to amount from held back to available.
func (a *Account) release(amount money.Amount) {
	moved := money.Min(a.held, amount)
	a.held = a.held.Sub(moved)
	a.available = a.available.Add(moved)
}

// Summary is the final snapshot of an account.
type Summary struct {
	ClientID  uint16
	Available money.Amount
	Held      money.Amount
	Total     money.Amount
	Locked    bool
}

// Summary returns a snapshot of the account.
func (a *Account) Summary() Summary {
	return Summary{
		ClientID:  a.clientID,
		Available: a.available,
		Held:      a.held,
		Total:     a.Total(),
		Locked:    a.Locked(),
	}
}
