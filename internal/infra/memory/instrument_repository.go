package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"spectrum-directory-service/internal/domain"

	"golang.org/x/sync/singleflight"
)

// InstrumentLoader fetches instrument content from a backing store.
type InstrumentLoader interface {
	LoadInstrument(ctx context.Context, instrumentID string) (domain.Instrument, error)
}

// InstrumentRepository caches instruments with TTL to avoid repeated DB hits.
type InstrumentRepository struct {
	loader InstrumentLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedInstrument
}

type cachedInstrument struct {
	instrument domain.Instrument
	expiresAt  time.Time
}

func NewInstrumentRepository(loader InstrumentLoader, ttl time.Duration) *InstrumentRepository {
	return &InstrumentRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedInstrument),
	}
}

func (r *InstrumentRepository) GetInstrument(ctx context.Context, instrumentID string) (domain.Instrument, error) {
	now := r.clock()

	r.mu.RLock()
	if entry, ok := r.cache[instrumentID]; ok && entry.expiresAt.After(now) {
		r.mu.RUnlock()
		return entry.instrument, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do(instrumentID, func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if entry, ok := r.cache[instrumentID]; ok && entry.expiresAt.After(now) {
			r.mu.RUnlock()
			return entry.instrument, nil
		}
		r.mu.RUnlock()

		instrument, err := r.loader.LoadInstrument(ctx, instrumentID)
		if err != nil {
			return domain.Instrument{}, err
		}

		r.mu.Lock()
		r.cache[instrumentID] = cachedInstrument{
			instrument: instrument,
			expiresAt:  now.Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return instrument, nil
	})
	if err != nil {
		return domain.Instrument{}, err
	}
	return result.(domain.Instrument), nil
}

// StaticInstrumentLoader is a simple loader backed by an in-memory map (useful for tests/demos).
type StaticInstrumentLoader struct {
	instruments map[string]domain.Instrument
}

func NewStaticInstrumentLoader(instruments map[string]domain.Instrument) *StaticInstrumentLoader {
	return &StaticInstrumentLoader{instruments: instruments}
}

func (l *StaticInstrumentLoader) LoadInstrument(_ context.Context, instrumentID string) (domain.Instrument, error) {
	if instrument, ok := l.instruments[instrumentID]; ok {
		return instrument, nil
	}
	return domain.Instrument{}, domain.ErrInstrumentNotFound
}

func (r *InstrumentRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
