package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gigbridge/matchd/internal/domain/model"
)

const (
	// inviteKeyPrefix namespaces per-request invitation hashes.
	inviteKeyPrefix = "matchd:invites:"

	// inviteIndexKey is the set of request ids with recorded invitations,
	// used by the expiry sweep.
	inviteIndexKey = "matchd:invites"
)

// RedisLedger implements Ledger on Redis: one hash per request keyed by
// invitation id, plus an index set for the expiry sweep.
type RedisLedger struct {
	rdb *redis.Client
}

// NewRedisLedger wraps an existing client.
func NewRedisLedger(rdb *redis.Client) *RedisLedger {
	return &RedisLedger{rdb: rdb}
}

// Record implements Ledger.
func (l *RedisLedger) Record(ctx context.Context, inv model.Invitation) error {
	payload, err := json.Marshal(inv)
	if err != nil {
		return fmt.Errorf("encode invitation: %w", err)
	}
	key := inviteKeyPrefix + inv.RequestID
	pipe := l.rdb.TxPipeline()
	pipe.HSet(ctx, key, inv.ID, payload)
	pipe.SAdd(ctx, inviteIndexKey, inv.RequestID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record invitation: %w", err)
	}
	return nil
}

// ByRequest implements Ledger.
func (l *RedisLedger) ByRequest(ctx context.Context, requestID string) ([]model.Invitation, error) {
	rows, err := l.rdb.HGetAll(ctx, inviteKeyPrefix+requestID).Result()
	if err != nil {
		return nil, fmt.Errorf("load invitations: %w", err)
	}
	out := make([]model.Invitation, 0, len(rows))
	for _, raw := range rows {
		var inv model.Invitation
		if err := json.Unmarshal([]byte(raw), &inv); err != nil {
			return nil, fmt.Errorf("decode invitation: %w", err)
		}
		out = append(out, inv)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SentAt.After(out[j].SentAt)
	})
	return out, nil
}

// ExpireDue implements Ledger.
func (l *RedisLedger) ExpireDue(ctx context.Context, now time.Time) (int, error) {
	requestIDs, err := l.rdb.SMembers(ctx, inviteIndexKey).Result()
	if err != nil {
		return 0, fmt.Errorf("load invitation index: %w", err)
	}

	var expired int
	for _, requestID := range requestIDs {
		key := inviteKeyPrefix + requestID
		rows, err := l.rdb.HGetAll(ctx, key).Result()
		if err != nil {
			return expired, fmt.Errorf("load invitations for %s: %w", requestID, err)
		}
		for id, raw := range rows {
			var inv model.Invitation
			if err := json.Unmarshal([]byte(raw), &inv); err != nil {
				return expired, fmt.Errorf("decode invitation %s: %w", id, err)
			}
			if !inv.Expired(now) {
				continue
			}
			inv.Status = model.InviteStatusExpired
			payload, err := json.Marshal(inv)
			if err != nil {
				return expired, fmt.Errorf("encode invitation %s: %w", id, err)
			}
			if err := l.rdb.HSet(ctx, key, id, payload).Err(); err != nil {
				return expired, fmt.Errorf("expire invitation %s: %w", id, err)
			}
			expired++
		}
	}
	return expired, nil
}
