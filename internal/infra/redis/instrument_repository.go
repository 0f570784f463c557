package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sort"
	"strconv"
	"time"

	"spectrum-directory-service/internal/domain"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// InstrumentLoader fetches instrument content from a backing store.
type InstrumentLoader interface {
	LoadInstrument(ctx context.Context, instrumentID string) (domain.Instrument, error)
}

// InstrumentRepository caches instruments in Redis (hash per instrument) and
// falls back to a loader on cache miss.
// Questions are stored as: HSET instrument:{id} q:{index} {question JSON}
// Metadata is stored as:   HSET instrument:{id} meta {name/threshold JSON}
type InstrumentRepository struct {
	client *redis.Client
	loader InstrumentLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

type instrumentMeta struct {
	Name      string `json:"name"`
	Threshold int    `json:"threshold"`
}

func NewInstrumentRepository(client *redis.Client, loader InstrumentLoader, ttl time.Duration) *InstrumentRepository {
	return &InstrumentRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *InstrumentRepository) GetInstrument(ctx context.Context, instrumentID string) (domain.Instrument, error) {
	key := r.key(instrumentID)

	fields, err := r.client.HGetAll(ctx, key).Result()
	if err == nil && len(fields) > 0 {
		return buildInstrumentFromCache(instrumentID, fields)
	}

	result, err, _ := r.sf.Do(instrumentID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		fields, err := r.client.HGetAll(ctx, key).Result()
		if err == nil && len(fields) > 0 {
			return buildInstrumentFromCache(instrumentID, fields)
		}

		instrument, err := r.loader.LoadInstrument(ctx, instrumentID)
		if err != nil {
			return domain.Instrument{}, err
		}

		ttl := r.ttlWithJitter()
		pipe := r.client.Pipeline()
		meta, _ := json.Marshal(instrumentMeta{Name: instrument.Name, Threshold: instrument.Threshold})
		pipe.HSet(ctx, key, "meta", string(meta))
		for _, q := range instrument.Questions {
			raw, err := json.Marshal(q)
			if err != nil {
				continue
			}
			pipe.HSet(ctx, key, "q:"+strconv.Itoa(q.Index), string(raw))
		}
		if ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		_, _ = pipe.Exec(ctx)

		return instrument, nil
	})
	if err != nil {
		return domain.Instrument{}, err
	}
	return result.(domain.Instrument), nil
}

func (r *InstrumentRepository) key(instrumentID string) string {
	return "instrument:" + instrumentID
}

func buildInstrumentFromCache(instrumentID string, fields map[string]string) (domain.Instrument, error) {
	instrument := domain.Instrument{ID: instrumentID}
	for field, raw := range fields {
		if field == "meta" {
			var meta instrumentMeta
			if err := json.Unmarshal([]byte(raw), &meta); err == nil {
				instrument.Name = meta.Name
				instrument.Threshold = meta.Threshold
			}
			continue
		}
		var q domain.Question
		if err := json.Unmarshal([]byte(raw), &q); err != nil {
			continue
		}
		instrument.Questions = append(instrument.Questions, q)
	}
	sort.Slice(instrument.Questions, func(i, j int) bool {
		return instrument.Questions[i].Index < instrument.Questions[j].Index
	})
	if len(instrument.Questions) == 0 {
		return domain.Instrument{}, domain.ErrInstrumentNotFound
	}
	return instrument, nil
}

func (r *InstrumentRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
