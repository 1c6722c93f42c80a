package services

import (
	"context"
	"fmt"
	"time"
	"timezone-lookup-service/internal/domain"
	"timezone-lookup-service/internal/platform/obs"
	"timezone-lookup-service/internal/ports"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const DefaultCacheTTL = 24 * time.Hour

type LookupRequest struct {
	Coordinates domain.Coordinates
	// Optional move from Coordinates before the lookup. Nil means the zone
	// at Coordinates itself is resolved.
	Displacement *domain.Displacement
}

type LookupResult struct {
	Query    domain.Coordinates
	Resolved domain.Coordinates
	Timezone domain.TimezoneResult
	Cached   bool
}

// TimezoneService resolves coordinates to zones through a provider, with an
// optional cache in front and an optional history behind.
//
// Provider errors are returned unchanged. Cache and history failures are
// logged and never fail a lookup.
type TimezoneService struct {
	Provider ports.TimezoneProvider
	Cache    ports.TimezoneCache
	History  ports.LookupRepository
	TTL      time.Duration
	// CallTimeout bounds a shared provider call. Zero leaves it to the
	// provider's own client timeout.
	CallTimeout time.Duration
	Now         func() time.Time

	group singleflight.Group
}

func NewTimezoneService(
	provider ports.TimezoneProvider,
	cache ports.TimezoneCache,
	history ports.LookupRepository,
	ttl time.Duration,
) *TimezoneService {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &TimezoneService{
		Provider: provider,
		Cache:    cache,
		History:  history,
		TTL:      ttl,
		Now:      time.Now,
	}
}

// Resolve validates the request before any I/O, computes the destination
// point if a displacement is given, and returns the zone there.
func (s *TimezoneService) Resolve(ctx context.Context, req LookupRequest) (_ LookupResult, err error) {
	defer obs.Time(ctx, "service.Resolve")(&err)

	if err := req.Coordinates.Validate(); err != nil {
		return LookupResult{}, err
	}

	target := req.Coordinates
	if req.Displacement != nil {
		target, err = domain.Destination(req.Coordinates, *req.Displacement)
		if err != nil {
			return LookupResult{}, err
		}
	}

	now := s.now()
	key := target.CacheKey()

	out := LookupResult{Query: req.Coordinates, Resolved: target}

	if s.Cache != nil {
		hit, ok, cerr := s.Cache.Get(ctx, key)
		if cerr != nil {
			zap.L().Warn("timezone cache read failed",
				zap.String("req_id", obs.RequestID(ctx)), zap.String("key", key), zap.Error(cerr))
		} else if ok {
			out.Timezone = hit.Restamp(now)
			out.Cached = true
			s.record(ctx, out, now)
			return out, nil
		}
	}

	// Concurrent requests for the same key share one provider call. The call
	// runs detached from any single caller, and each caller waits on its own
	// context.
	ch := s.group.DoChan(key, func() (any, error) {
		callCtx, cancel := s.callContext(ctx)
		defer cancel()

		res, err := s.Provider.LookupTimezone(callCtx, target)
		if err != nil {
			return nil, err
		}

		if s.Cache != nil {
			expiresAt := res.ValidUntil(now.Add(s.TTL))
			if perr := s.Cache.Put(callCtx, key, res, expiresAt); perr != nil {
				zap.L().Warn("timezone cache write failed",
					zap.String("req_id", obs.RequestID(ctx)), zap.String("key", key), zap.Error(perr))
			}
		}
		return res, nil
	})

	var v any
	select {
	case <-ctx.Done():
		return LookupResult{}, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return LookupResult{}, r.Err
		}
		v = r.Val
	}

	res, ok := v.(domain.TimezoneResult)
	if !ok {
		return LookupResult{}, fmt.Errorf("resolve timezone: unexpected result type %T", v)
	}
	out.Timezone = res

	s.record(ctx, out, now)
	return out, nil
}

// RecentLookups lists history, newest first.
func (s *TimezoneService) RecentLookups(ctx context.Context, limit int) ([]domain.LookupRecord, error) {
	if s.History == nil {
		return nil, domain.ErrHistoryDisabled
	}

	records, err := s.History.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("recent lookups: %w", err)
	}
	return records, nil
}

func (s *TimezoneService) record(ctx context.Context, out LookupResult, now time.Time) {
	if s.History == nil {
		return
	}

	rec := domain.LookupRecord{
		RequestedAt: now,
		Query:       out.Query,
		Resolved:    out.Resolved,
		ZoneName:    out.Timezone.ZoneName,
		Cached:      out.Cached,
	}
	if err := s.History.RecordLookup(ctx, rec); err != nil {
		zap.L().Warn("lookup history write failed",
			zap.String("req_id", obs.RequestID(ctx)), zap.Error(err))
	}
}

// callContext keeps request values such as the request id but drops the
// caller's cancellation.
func (s *TimezoneService) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	detached := context.WithoutCancel(ctx)
	if s.CallTimeout > 0 {
		return context.WithTimeout(detached, s.CallTimeout)
	}
	return context.WithCancel(detached)
}

func (s *TimezoneService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}
