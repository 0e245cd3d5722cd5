// Package ledger applies transaction records to client accounts.
//
// A Store is fed records one at a time, in stream order. Records that break a
// business rule (replayed ids, disputes of unknown or already disputed
// transactions, resolutions of undisputed ones, withdrawals beyond available
// funds) are dropped without error and leave every balance unchanged. The
// outcome of each record depends on every record before it, so a Store must
// not be shared between goroutines.
package ledger

import (
	"log/slog"
	"sort"

	"github.com/shunichi-ikebuchi/txledger/pkg/money"
	"github.com/shunichi-ikebuchi/txledger/pkg/transaction"
)

// Rejection is the reason a record was dropped.
type Rejection string

const (
	RejectDuplicate         Rejection = "duplicate transaction id"
	RejectUnknown           Rejection = "unknown transaction"
	RejectAlreadyDisputed   Rejection = "already disputed"
	RejectNotDisputed       Rejection = "not disputed"
	RejectClientMismatch    Rejection = "client mismatch"
	RejectInsufficientFunds Rejection = "insufficient funds"
	RejectOverflow          Rejection = "balance overflow"
)

// Store owns all accounts, the log of deposits and withdrawals, and the set
// of transaction ids currently under dispute.
type Store struct {
	accounts map[uint16]*Account
	log      map[uint32]transaction.Record
	disputed map[uint32]struct{}

	stats  Stats
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used to report dropped records at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore creates an empty Store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		accounts: make(map[uint16]*Account),
		log:      make(map[uint32]transaction.Record),
		disputed: make(map[uint32]struct{}),
		stats:    newStats(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Apply ingests one record. The addressed account is created on first sight
// even when the record itself is dropped.
func (s *Store) Apply(record transaction.Record) {
	id := record.Identity()
	s.stats.Seen++

	account, ok := s.accounts[id.ClientID]
	if !ok {
		account = newAccount(id.ClientID)
		s.accounts[id.ClientID] = account
	}

	if reason := s.check(record); reason != "" {
		s.reject(record, reason)
		return
	}

	s.record(record)

	if reason := account.apply(record, s.disputedAmount(record)); reason != "" {
		s.reject(record, reason)
		return
	}

	s.stats.Applied++
}

// check decides whether a record may be processed given everything seen so far.
func (s *Store) check(record transaction.Record) Rejection {
	id := record.Identity()
	logged, recorded := s.log[id.TransactionID]
	_, disputed := s.disputed[id.TransactionID]

	switch record.(type) {
	case transaction.Deposit, transaction.Withdrawal:
		if recorded {
			return RejectDuplicate
		}
	case transaction.Dispute:
		switch {
		case !recorded:
			return RejectUnknown
		case disputed:
			return RejectAlreadyDisputed
		case logged.Identity().ClientID != id.ClientID:
			return RejectClientMismatch
		}
	case transaction.Resolve, transaction.Chargeback:
		switch {
		case !recorded:
			return RejectUnknown
		case !disputed:
			return RejectNotDisputed
		case logged.Identity().ClientID != id.ClientID:
			return RejectClientMismatch
		}
	}

	return ""
}

// record updates the transaction log and dispute set for an accepted record.
func (s *Store) record(record transaction.Record) {
	txID := record.Identity().TransactionID

	switch record.(type) {
	case transaction.Deposit, transaction.Withdrawal:
		s.log[txID] = record
	case transaction.Dispute:
		s.disputed[txID] = struct{}{}
	case transaction.Resolve, transaction.Chargeback:
		delete(s.disputed, txID)
	}
}

// disputedAmount returns the amount of the transaction a dispute, resolve or
// chargeback refers to, and zero for every other record.
func (s *Store) disputedAmount(record transaction.Record) money.Amount {
	switch record.(type) {
	case transaction.Dispute, transaction.Resolve, transaction.Chargeback:
		if referenced, ok := s.log[record.Identity().TransactionID]; ok {
			return referenced.Amount()
		}
	}
	return money.Zero()
}

func (s *Store) reject(record transaction.Record, reason Rejection) {
	s.stats.Rejected[reason]++

	id := record.Identity()
	s.logger.Debug("Dropped transaction",
		"kind", record.Kind(),
		"client", id.ClientID,
		"tx", id.TransactionID,
		"reason", string(reason),
	)
}

// Account returns the account of a client, if any record has addressed it.
func (s *Store) Account(clientID uint16) (*Account, bool) {
	account, ok := s.accounts[clientID]
	return account, ok
}

// Accounts returns every account in ascending client id order.
func (s *Store) Accounts() []*Account {
	ids := make([]uint16, 0, len(s.accounts))
	for id := range s.accounts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	accounts := make([]*Account, 0, len(ids))
	for _, id := range ids {
		accounts = append(accounts, s.accounts[id])
	}
	return accounts
}

// Summaries returns a snapshot of every account in ascending client id order.
func (s *Store) Summaries() []Summary {
	accounts := s.Accounts()
	summaries := make([]Summary, 0, len(accounts))
	for _, account := range accounts {
		summaries = append(summaries, account.Summary())
	}
	return summaries
}

// IsDisputed reports whether a transaction id is currently under dispute.
func (s *Store) IsDisputed(txID uint32) bool {
	_, ok := s.disputed[txID]
	return ok
}

// Stats returns a copy of the ingestion counters.
func (s *Store) Stats() Stats {
	return s.stats.clone()
}
