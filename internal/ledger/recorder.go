package ledger

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
)

// Entry is one recorded transfer.
type Entry struct {
	Recipient string
	Amount    decimal.Decimal
	Memo      string
}

// Recorder is an in-memory FundMover for tests: it records transfers
// instead of journaling them.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Transfer(ctx context.Context, recipient string, amount decimal.Decimal, memo string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Recipient: recipient, Amount: amount, Memo: memo})
	return nil
}

// Entries returns a copy of every recorded transfer.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// TotalFor sums recorded transfers to recipient.
func (r *Recorder) TotalFor(recipient string) decimal.Decimal {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := decimal.Zero
	for _, e := range r.entries {
		if e.Recipient == recipient {
			total = total.Add(e.Amount)
		}
	}
	return total
}
