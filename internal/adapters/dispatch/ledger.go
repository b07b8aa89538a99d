package dispatch

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gigbridge/matchd/internal/domain/model"
)

// Ledger stores invitations and expires the ones past their deadline.
type Ledger interface {
	// Record persists a new invitation.
	Record(ctx context.Context, inv model.Invitation) error

	// ByRequest returns all invitations for a request, newest first.
	ByRequest(ctx context.Context, requestID string) ([]model.Invitation, error)

	// ExpireDue marks every pending invitation whose deadline has passed
	// as expired and returns how many it changed. The sweep runs on a
	// cron schedule; responses arriving after expiry are ignored.
	ExpireDue(ctx context.Context, now time.Time) (int, error)
}

// MemLedger implements Ledger in memory.
type MemLedger struct {
	mu   sync.RWMutex
	rows map[string][]model.Invitation // requestID -> invitations
}

// NewMemLedger creates an empty in-memory invitation ledger.
func NewMemLedger() *MemLedger {
	return &MemLedger{rows: make(map[string][]model.Invitation)}
}

// Record implements Ledger.
func (l *MemLedger) Record(_ context.Context, inv model.Invitation) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rows[inv.RequestID] = append(l.rows[inv.RequestID], inv)
	return nil
}

// ByRequest implements Ledger.
func (l *MemLedger) ByRequest(_ context.Context, requestID string) ([]model.Invitation, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	rows := l.rows[requestID]
	out := make([]model.Invitation, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SentAt.After(out[j].SentAt)
	})
	return out, nil
}

// ExpireDue implements Ledger.
func (l *MemLedger) ExpireDue(_ context.Context, now time.Time) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var expired int
	for requestID, rows := range l.rows {
		for i := range rows {
			if rows[i].Expired(now) {
				rows[i].Status = model.InviteStatusExpired
				expired++
			}
		}
		l.rows[requestID] = rows
	}
	return expired, nil
}
