package ledger

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shunichi-ikebuchi/txledger/pkg/money"
	"github.com/shunichi-ikebuchi/txledger/pkg/transaction"
)

// randomStream builds a reproducible stream over a few clients with plenty of
// replays and references to unknown ids.
func randomStream(rng *rand.Rand, n int, withChargebacks bool) []transaction.Record {
	kinds := []transaction.Kind{
		transaction.KindDeposit,
		transaction.KindDeposit,
		transaction.KindWithdrawal,
		transaction.KindDispute,
		transaction.KindResolve,
	}
	if withChargebacks {
		kinds = append(kinds, transaction.KindChargeback)
	}

	records := make([]transaction.Record, 0, n)
	for i := 0; i < n; i++ {
		kind := kinds[rng.Intn(len(kinds))]
		id := transaction.ID{
			ClientID:      uint16(rng.Intn(4) + 1),
			TransactionID: uint32(rng.Intn(n/2) + 1),
		}
		amount := money.FromUnits(uint64(rng.Intn(1_000_000)))

		record, err := transaction.New(kind, id, amount)
		if err != nil {
			panic(err)
		}
		records = append(records, record)
	}
	return records
}

func TestTotalIsConservedWithoutChargebacks(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		t.Run(fmt.Sprintf("seed %d", seed), func(t *testing.T) {
			rng := rand.New(rand.NewSource(seed))
			store := NewStore()

			deposited := map[uint16]money.Amount{}
			withdrawn := map[uint16]money.Amount{}

			for _, record := range randomStream(rng, 400, false) {
				client := record.Identity().ClientID
				before, _ := store.Account(client)
				var available money.Amount
				if before != nil {
					available = before.Available()
				}
				applied := store.Stats().Applied

				store.Apply(record)

				if store.Stats().Applied == applied {
					continue
				}
				switch record.Kind() {
				case transaction.KindDeposit:
					deposited[client] = deposited[client].Add(record.Amount())
				case transaction.KindWithdrawal:
					require.True(t, record.Amount().Less(available))
					withdrawn[client] = withdrawn[client].Add(record.Amount())
				}
			}

			for _, account := range store.Accounts() {
				client := account.ClientID()
				expected := deposited[client].Sub(withdrawn[client])
				assert.Equal(t, expected, account.Total(), "client %d", client)
			}
		})
	}
}

func TestLockIsMonotonic(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		rng := rand.New(rand.NewSource(seed))
		store := NewStore()
		locked := map[uint16]bool{}

		for _, record := range randomStream(rng, 400, true) {
			store.Apply(record)

			for _, account := range store.Accounts() {
				if locked[account.ClientID()] {
					require.True(t, account.Locked(), "seed %d: client %d unlocked", seed, account.ClientID())
				}
				locked[account.ClientID()] = account.Locked()
			}
		}
	}
}

func TestClampsNeverExceedBalances(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		rng := rand.New(rand.NewSource(seed))
		store := NewStore()

		for _, record := range randomStream(rng, 400, true) {
			client := record.Identity().ClientID
			var available, held money.Amount
			if account, ok := store.Account(client); ok {
				available, held = account.Available(), account.Held()
			}

			// Sub panics on underflow, so reaching the assertions already
			// proves no balance went negative.
			store.Apply(record)
			account, _ := store.Account(client)

			switch record.Kind() {
			case transaction.KindDispute:
				moved := account.Held().Sub(held)
				assert.False(t, available.Less(moved), "dispute held more than available")
			case transaction.KindResolve, transaction.KindChargeback:
				moved := account.Available().Sub(available)
				assert.False(t, held.Less(moved), "release moved more than held")
			}
		}
	}
}

func TestClientsAreIndependent(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	stream := randomStream(rng, 400, true)

	combined := NewStore()
	for _, record := range stream {
		combined.Apply(record)
	}

	// Replaying each client's records alone gives the same balances, as long
	// as no transaction id is shared between clients.
	owners := map[uint32]uint16{}
	shared := map[uint32]bool{}
	for _, record := range stream {
		tx, client := record.Identity().TransactionID, record.Identity().ClientID
		if owner, ok := owners[tx]; ok && owner != client {
			shared[tx] = true
		}
		owners[tx] = client
	}

	isolated := NewStore()
	filtered := NewStore()
	for _, record := range stream {
		if shared[record.Identity().TransactionID] {
			continue
		}
		filtered.Apply(record)
		if record.Identity().ClientID == 1 {
			isolated.Apply(record)
		}
	}

	got, ok := isolated.Account(1)
	if !ok {
		t.Skip("seed produced no records for client 1")
	}
	want, _ := filtered.Account(1)
	assert.Equal(t, want.Summary(), got.Summary())
}
