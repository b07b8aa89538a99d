// Package settings persists the matching configuration as individual keys
// in a generic settings store.
//
// The store offers no multi-key transaction, so an update that fails midway
// leaves the configuration partially written. That condition is surfaced to
// the caller as ErrPartialWrite; callers must reload before retrying.
package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/gigbridge/matchd/internal/domain/model"
	"github.com/gigbridge/matchd/pkg/logger"
	"github.com/gigbridge/matchd/pkg/metrics"
)

// Persisted keys. One entry per MatchConfig field.
const (
	KeyWeights             = "matching.weights"
	KeyShortlistSize       = "matching.shortlist_size_default"
	KeyInviteSLAHours      = "matching.invite_response_sla_hours"
	KeyMaxQuotes           = "matching.max_quotes_per_request"
	KeyMinQuotes           = "matching.min_quotes_before_presenting"
	KeySensitiveSingleOnly = "matching.sensitive_single_provider_only"
	KeyConflictWindowDays  = "matching.conflict_window_days"
)

// Keys lists every persisted configuration key.
func Keys() []string {
	return []string{
		KeyWeights,
		KeyShortlistSize,
		KeyInviteSLAHours,
		KeyMaxQuotes,
		KeyMinQuotes,
		KeySensitiveSingleOnly,
		KeyConflictWindowDays,
	}
}

// Store is a generic per-key settings store.
type Store interface {
	// LoadAll returns the stored values for keys. Missing keys are simply
	// absent from the result.
	LoadAll(ctx context.Context, keys []string) (map[string]string, error)

	// Put upserts a single key.
	Put(ctx context.Context, key, value string) error
}

// Manager reads and writes the matching configuration through a Store.
type Manager struct {
	store  Store
	logger logger.Logger
}

// NewManager wraps a Store with configuration encode/decode logic.
func NewManager(store Store) *Manager {
	return &Manager{
		store:  store,
		logger: logger.Named("settings"),
	}
}

// Config loads the matching configuration. Any missing or unreadable key
// falls back to its documented default; a store failure degrades to the
// full default configuration. Config never fails — absence means defaults.
// The returned warnings describe every fallback taken.
func (m *Manager) Config(ctx context.Context) (model.MatchConfig, []string) {
	metrics.RecordConfigLoad()
	cfg := model.DefaultMatchConfig()

	values, err := m.store.LoadAll(ctx, Keys())
	if err != nil {
		metrics.RecordConfigLoadFallback()
		m.logger.Warn(ctx, "settings load failed; using defaults", logger.Error(err))
		return cfg, []string{"settings store unavailable; using defaults"}
	}

	var warnings []string
	decode := func(key string, apply func(raw string) error) {
		raw, ok := values[key]
		if !ok {
			return
		}
		if err := apply(raw); err != nil {
			warnings = append(warnings, fmt.Sprintf("ignoring stored %s: %v", key, err))
		}
	}

	decode(KeyWeights, func(raw string) error {
		var w map[string]float64
		if err := json.Unmarshal([]byte(raw), &w); err != nil {
			return err
		}
		cfg.Weights = w
		return nil
	})
	decode(KeyShortlistSize, positiveInt(&cfg.ShortlistSizeDefault))
	decode(KeyInviteSLAHours, positiveInt(&cfg.InviteResponseSLAHours))
	decode(KeyMaxQuotes, positiveInt(&cfg.MaxQuotesPerRequest))
	decode(KeyMinQuotes, positiveInt(&cfg.MinQuotesBeforePresenting))
	decode(KeySensitiveSingleOnly, func(raw string) error {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		cfg.SensitiveSingleProviderOnly = v
		return nil
	})
	decode(KeyConflictWindowDays, positiveInt(&cfg.ConflictWindowDays))

	if len(warnings) > 0 {
		metrics.RecordConfigLoadFallback()
	}
	return cfg, warnings
}

// UpdateConfig persists every configuration field as an individual key.
// The weight map is stored as-is even when it fails the sum-to-1.0 check;
// soft validation is the dashboard's responsibility. On failure the
// returned error names the keys written before the store gave up.
func (m *Manager) UpdateConfig(ctx context.Context, cfg model.MatchConfig) error {
	weightsJSON, err := json.Marshal(cfg.Weights)
	if err != nil {
		metrics.RecordConfigUpdateError()
		return fmt.Errorf("encode weights: %w", err)
	}

	entries := []struct {
		key   string
		value string
	}{
		{KeyWeights, string(weightsJSON)},
		{KeyShortlistSize, strconv.Itoa(cfg.ShortlistSizeDefault)},
		{KeyInviteSLAHours, strconv.Itoa(cfg.InviteResponseSLAHours)},
		{KeyMaxQuotes, strconv.Itoa(cfg.MaxQuotesPerRequest)},
		{KeyMinQuotes, strconv.Itoa(cfg.MinQuotesBeforePresenting)},
		{KeySensitiveSingleOnly, strconv.FormatBool(cfg.SensitiveSingleProviderOnly)},
		{KeyConflictWindowDays, strconv.Itoa(cfg.ConflictWindowDays)},
	}

	var written []string
	for _, e := range entries {
		if err := m.store.Put(ctx, e.key, e.value); err != nil {
			metrics.RecordConfigUpdateError()
			if len(written) == 0 {
				return fmt.Errorf("%w: no keys written: %w", ErrSaveFailed, err)
			}
			return fmt.Errorf("%w: wrote %s before failing on %s: %w",
				ErrPartialWrite, strings.Join(written, ", "), e.key, err)
		}
		written = append(written, e.key)
	}

	metrics.RecordConfigUpdate()
	return nil
}

func positiveInt(dst *int) func(raw string) error {
	return func(raw string) error {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return err
		}
		if v <= 0 {
			return fmt.Errorf("must be positive, got %d", v)
		}
		*dst = v
		return nil
	}
}
