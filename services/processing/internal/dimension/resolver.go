package dimension

import (
	"fmt"
	"strings"
	"sync"

	"talentinsight/common/errors"

	"go.uber.org/zap"
)

type Dimension string

const (
	Country Dimension = "country"
	Skill   Dimension = "skill"
	Source  Dimension = "source"
	Company Dimension = "company"
	DateDim Dimension = "date"
)

// SentinelID is the reserved "Unknown" member of every surrogate-keyed
// dimension.
const SentinelID int64 = 1

const Unknown = "Unknown"

// Resolver maps natural keys to surrogate ids for one run. Curated members
// are registered first; lookups of anything else return SentinelID and a
// RESOLUTION_MISS error. Keys are compared trimmed and case-folded.
type Resolver struct {
	mu     sync.Mutex
	logger *zap.Logger

	ids  map[Dimension]map[string]int64
	next map[Dimension]int64

	dates        map[string]struct{}
	fallbackDate string

	misses    map[Dimension]int
	missErr   map[Dimension]map[string]error
	missCount map[Dimension]map[string]int
}

func NewResolver(logger *zap.Logger) *Resolver {
	return &Resolver{
		logger:    logger,
		ids:       make(map[Dimension]map[string]int64),
		next:      make(map[Dimension]int64),
		dates:     make(map[string]struct{}),
		misses:    make(map[Dimension]int),
		missErr:   make(map[Dimension]map[string]error),
		missCount: make(map[Dimension]map[string]int),
	}
}

// RegisterSentinel binds key to SentinelID. It must precede Register for the
// same dimension.
func (r *Resolver) RegisterSentinel(dim Dimension, key string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	m := r.members(dim)
	m[normalize(key)] = SentinelID
	if r.next[dim] <= SentinelID {
		r.next[dim] = SentinelID + 1
	}
	return SentinelID
}

// Register returns the id for key, allocating the next sequential id on
// first sight. Ids start above the sentinel and follow registration order.
func (r *Resolver) Register(dim Dimension, key string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	m := r.members(dim)
	k := normalize(key)
	if id, ok := m[k]; ok {
		return id
	}
	if r.next[dim] <= SentinelID {
		r.next[dim] = SentinelID + 1
	}
	id := r.next[dim]
	r.next[dim]++
	m[k] = id
	return id
}

// Resolve looks up a registered member. Unknown keys resolve to SentinelID
// with a RESOLUTION_MISS error; the caller keeps the row.
func (r *Resolver) Resolve(dim Dimension, key string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.ids[dim][normalize(key)]; ok {
		return id, nil
	}
	return SentinelID, r.miss(dim, key)
}

// Size is the number of registered members, sentinel included.
func (r *Resolver) Size(dim Dimension) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ids[dim])
}

// RegisterDates loads the date dimension's keys and the fallback used for
// dates outside it.
func (r *Resolver) RegisterDates(dates []Date, fallback string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, d := range dates {
		r.dates[d.Key] = struct{}{}
	}
	if _, ok := r.dates[fallback]; !ok {
		return fmt.Errorf("fallback date %s is not in the date dimension", fallback)
	}
	r.fallbackDate = fallback
	return nil
}

// ResolveDate returns key when it is a member of the date dimension and the
// fallback date otherwise. An empty key (unparseable upstream) also falls
// back and counts as a miss.
func (r *Resolver) ResolveDate(key string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.dates[key]; ok {
		return key, nil
	}
	return r.fallbackDate, r.miss(DateDim, key)
}

// Misses returns the number of sentinel/fallback resolutions per dimension.
func (r *Resolver) Misses() map[Dimension]int {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[Dimension]int, len(r.misses))
	for d, n := range r.misses {
		out[d] = n
	}
	return out
}

// MissedKeys returns the distinct unresolved keys of dim with their counts.
func (r *Resolver) MissedKeys(dim Dimension) map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]int, len(r.missCount[dim]))
	for k, n := range r.missCount[dim] {
		out[k] = n
	}
	return out
}

func (r *Resolver) members(dim Dimension) map[string]int64 {
	m, ok := r.ids[dim]
	if !ok {
		m = make(map[string]int64)
		r.ids[dim] = m
	}
	return m
}

// miss records an unresolved key; callers hold r.mu. Each distinct key is
// logged once and shares one error value.
func (r *Resolver) miss(dim Dimension, key string) error {
	r.misses[dim]++
	k := normalize(key)

	if r.missCount[dim] == nil {
		r.missCount[dim] = make(map[string]int)
		r.missErr[dim] = make(map[string]error)
	}
	r.missCount[dim][k]++

	if err, ok := r.missErr[dim][k]; ok {
		return err
	}
	err := errors.ResolutionMiss(fmt.Sprintf("%s %q not in catalog", dim, key), nil)
	r.missErr[dim][k] = err
	r.logger.Warn("dimension key not found, using sentinel",
		zap.String("dimension", string(dim)),
		zap.String("key", key))
	return err
}

func normalize(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
