// Package dispatch sends time-boxed invitations to shortlisted candidates
// and tracks their lifecycle in a ledger.
//
// Dispatch is best-effort: the coordinator reports exactly the count the
// dispatcher confirms and never assumes success beyond it.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gigbridge/matchd/internal/domain/model"
	"github.com/gigbridge/matchd/pkg/logger"
	"github.com/gigbridge/matchd/pkg/metrics"
)

// Result reports the outcome of a bulk dispatch. Confirmed may be lower
// than Requested; Errors carries one entry per failed invitation.
type Result struct {
	Requested int
	Confirmed int
	Errors    []string
}

// Dispatcher sends invitations for a request to a set of candidates.
type Dispatcher interface {
	Send(ctx context.Context, requestID string, userIDs []string, sla time.Duration) (Result, error)
}

// Option applies a configuration option to the LedgerDispatcher.
type Option func(*LedgerDispatcher)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(d *LedgerDispatcher) {
		if now != nil {
			d.now = now
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(d *LedgerDispatcher) {
		if log != nil {
			d.logger = log
		}
	}
}

// LedgerDispatcher implements Dispatcher by writing one pending invitation
// per candidate into the ledger. A per-candidate write failure is collected
// and reported, not fatal to the batch.
type LedgerDispatcher struct {
	ledger Ledger
	now    func() time.Time
	logger logger.Logger
}

// NewLedgerDispatcher creates a dispatcher backed by the given ledger.
func NewLedgerDispatcher(ledger Ledger, opts ...Option) *LedgerDispatcher {
	d := &LedgerDispatcher{
		ledger: ledger,
		now:    time.Now,
		logger: logger.Named("dispatch"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Send implements Dispatcher.
func (d *LedgerDispatcher) Send(ctx context.Context, requestID string, userIDs []string, sla time.Duration) (Result, error) {
	res := Result{Requested: len(userIDs)}
	metrics.RecordInvitationsRequested(len(userIDs))

	sentAt := d.now().UTC()
	for _, userID := range userIDs {
		inv := model.Invitation{
			ID:        uuid.NewString(),
			RequestID: requestID,
			UserID:    userID,
			Status:    model.InviteStatusPending,
			SentAt:    sentAt,
			ExpiresAt: sentAt.Add(sla),
		}
		if err := d.ledger.Record(ctx, inv); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", userID, err))
			d.logger.Warn(ctx, "invitation dispatch failed",
				logger.String("requestID", requestID),
				logger.String("userID", userID),
				logger.Error(err),
			)
			continue
		}
		res.Confirmed++
	}

	metrics.RecordInvitationsSent(res.Confirmed)
	metrics.RecordInvitationsFailed(len(res.Errors))

	if res.Confirmed == 0 && res.Requested > 0 {
		return res, fmt.Errorf("%w: 0 of %d confirmed", ErrDispatchFailed, res.Requested)
	}
	return res, nil
}
