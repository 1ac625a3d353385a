// Package clock provides the trusted time source used for every
// calendar-day and lockout-window decision in the app. Device clocks are
// never trusted directly: a user who moves their clock forward must not be
// able to farm daily refills or wait out a login lockout.
package clock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrClockUnavailable is returned by NowStrict when the trusted source is
// unreachable and no sufficiently recent sync exists to fall back on.
var ErrClockUnavailable = errors.New("trusted clock unavailable")

// maxOffsetAge bounds how long a previously learned offset may be served
// after the source becomes unreachable. Past this bound the offset is no
// more trustworthy than the raw device clock, since local+offset drifts
// with any wall-clock change made during the outage.
const maxOffsetAge = 24 * time.Hour

// Clock is the single source of "now" for time-window decisions.
type Clock interface {
	// Now returns the trusted current time. The second result is true when
	// the oracle had to degrade to the local device clock because the
	// trusted source is unreachable; callers making security-sensitive
	// decisions should prefer NowStrict.
	Now(ctx context.Context) (time.Time, bool)

	// NowStrict returns the trusted current time or ErrClockUnavailable.
	// It never silently substitutes the local clock.
	NowStrict(ctx context.Context) (time.Time, error)
}

// Source fetches an authoritative timestamp from a server-controlled clock.
type Source interface {
	Fetch(ctx context.Context) (time.Time, error)
}

// Oracle implements Clock on top of a Source. It keeps the last observed
// offset between server time and the local clock so that every call does not
// need a network round-trip; the offset is refreshed once it is older than
// the sync interval. All state is held on the struct, guarded by a mutex,
// rather than in package globals.
type Oracle struct {
	source       Source
	syncInterval time.Duration
	logger       *slog.Logger

	mu       sync.Mutex
	offset   time.Duration
	synced   bool
	lastSync time.Time // local clock reading at the last successful sync
}

var _ Clock = (*Oracle)(nil)

// NewOracle creates an oracle over the given source. If logger is nil, the
// default logger is used.
func NewOracle(source Source, syncInterval time.Duration, logger *slog.Logger) *Oracle {
	if source == nil {
		panic("source cannot be nil")
	}
	if syncInterval <= 0 {
		syncInterval = 15 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Oracle{
		source:       source,
		syncInterval: syncInterval,
		logger:       logger.With(slog.String("component", "clock_oracle")),
	}
}

// Now implements Clock.Now. When the source cannot be reached and no offset
// has ever been learned, it degrades to the local clock and reports that it
// did so.
func (o *Oracle) Now(ctx context.Context) (time.Time, bool) {
	now, err := o.trustedNow(ctx)
	if err != nil {
		o.logger.Warn("falling back to local device clock",
			slog.String("error", err.Error()))
		return time.Now().UTC(), true
	}
	return now, false
}

// NowStrict implements Clock.NowStrict.
func (o *Oracle) NowStrict(ctx context.Context) (time.Time, error) {
	now, err := o.trustedNow(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrClockUnavailable, err)
	}
	return now, nil
}

// trustedNow serves local+offset while the last sync is fresh, refreshing
// the offset from the source when it has gone stale. A failed refresh keeps
// serving the previously learned offset until it reaches maxOffsetAge; a
// recently learned offset is still better than the raw device clock, an old
// one is not.
func (o *Oracle) trustedNow(ctx context.Context) (time.Time, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	local := time.Now()
	if o.synced && local.Sub(o.lastSync) < o.syncInterval {
		return local.Add(o.offset).UTC(), nil
	}

	server, err := o.source.Fetch(ctx)
	if err != nil {
		if o.synced {
			age := local.Sub(o.lastSync)
			if age < maxOffsetAge {
				o.logger.Warn("clock sync failed, serving last known offset",
					slog.String("error", err.Error()),
					slog.Duration("offset", o.offset))
				return local.Add(o.offset).UTC(), nil
			}
			o.logger.Warn("clock sync failed and last offset is too old to trust",
				slog.String("error", err.Error()),
				slog.Duration("offset_age", age))
			return time.Time{}, fmt.Errorf("offset is %v old: %w", age.Round(time.Minute), err)
		}
		return time.Time{}, err
	}

	o.offset = server.Sub(local)
	o.synced = true
	o.lastSync = local
	o.logger.Debug("clock synced",
		slog.Duration("offset", o.offset))
	return local.Add(o.offset).UTC(), nil
}
