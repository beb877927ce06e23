// ------------------------------------------------------
// FuzzKit - Ranking Engine
// Needle-vs-haystacks scoring with cached handles
// ------------------------------------------------------

package matcher

import (
	"context"
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sahilm/fuzzy"
	log "github.com/sirupsen/logrus"

	"github.com/fuzzkit/fuzzkit/pkg/config"
	"github.com/fuzzkit/fuzzkit/pkg/fuzz"
)

// Match is a single ranked candidate.
type Match struct {
	// Candidate is the haystack string that was scored.
	Candidate string `json:"candidate"`

	// Score is the distance-like score: 0.0 identical, 1.0 dissimilar.
	Score float64 `json:"score"`

	// Rank is the 1-based position after sorting, best match first.
	Rank int `json:"rank"`
}

// Report is the outcome of ranking one needle against a candidate pool.
type Report struct {
	Needle      string        `json:"needle"`
	Algorithm   string        `json:"algorithm"`
	Matches     []Match       `json:"matches"`
	Candidates  int           `json:"candidates"`
	Prefiltered int           `json:"prefiltered"`
	StartTime   time.Time     `json:"start_time"`
	Duration    time.Duration `json:"duration"`
}

// Stats holds matcher statistics — updated atomically.
type Stats struct {
	Rankings    int64 `json:"rankings"`
	Scored      int64 `json:"scored"`
	CacheHits   int64 `json:"cache_hits"`
	CacheMisses int64 `json:"cache_misses"`
}

// Matcher ranks candidate strings against needles. One CachedRatio
// handle is created per needle and destroyed when the ranking finishes,
// so repeated candidates reuse the precomputed reference state.
// Matcher is safe for concurrent use.
type Matcher struct {
	cfg   *config.Config
	alg   fuzz.Algorithm
	cache *Cache

	rankings    atomic.Int64
	scored      atomic.Int64
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64
}

// NewMatcher creates a new Matcher from cfg.
// Returns an error if the configured algorithm is unknown.
func NewMatcher(cfg *config.Config) (*Matcher, error) {
	alg := fuzz.Lookup(cfg.Algorithm)
	if alg == nil {
		return nil, fmt.Errorf("unknown algorithm %q (available: %v)", cfg.Algorithm, fuzz.Names())
	}

	var cache *Cache
	if cfg.CacheSize > 0 {
		cache = NewCache(cfg.CacheSize)
	}

	return &Matcher{
		cfg:   cfg,
		alg:   alg,
		cache: cache,
	}, nil
}

// Algorithm returns the name of the configured similarity algorithm.
func (m *Matcher) Algorithm() string {
	return m.alg.Name()
}

// Rank scores needle against every candidate and returns the matches
// sorted best-first (ascending score, ties broken by candidate text).
// Matches scoring above cfg.MaxScore are dropped; limit > 0 truncates
// the result. Candidates are scored concurrently under cfg.Concurrency;
// the needle's handle is destroyed on every exit path.
//
// Rank respects ctx: when it is cancelled mid-ranking, the partial
// result is discarded and ctx.Err() is returned.
func (m *Matcher) Rank(ctx context.Context, needle string, candidates []string, limit int) (*Report, error) {
	start := time.Now()
	report := &Report{
		Needle:     needle,
		Algorithm:  m.alg.Name(),
		Candidates: len(candidates),
		StartTime:  start,
	}

	key := cacheKey(m.alg.Name(), needle, candidates)
	if m.cache != nil {
		if cached, prefiltered, ok := m.cache.Get(key); ok {
			m.cacheHits.Add(1)
			report.Prefiltered = prefiltered
			report.Matches = applyLimit(cached, limit)
			report.Duration = time.Since(start)
			return report, nil
		}
		m.cacheMisses.Add(1)
	}

	pool := candidates
	if m.cfg.Prefilter && needle != "" {
		pool = prefilter(needle, candidates)
		report.Prefiltered = len(candidates) - len(pool)
		log.Debugf("prefilter kept %d of %d candidates for %q", len(pool), len(candidates), needle)
	}

	handle := fuzz.New(m.alg, needle)
	defer handle.Close()

	scores := make([]float64, len(pool))
	sem := make(chan struct{}, m.cfg.Concurrency)

	var wg sync.WaitGroup
	var cancelled atomic.Bool

	for idx, candidate := range pool {
		wg.Add(1)

		go func(slot int, text string) {
			defer wg.Done()

			// Acquire semaphore — respect context cancellation while waiting.
			select {
			case sem <- struct{}{}:
				// slot acquired
			case <-ctx.Done():
				cancelled.Store(true)
				return
			}
			defer func() { <-sem }()

			scores[slot] = handle.Score(text)
		}(idx, candidate)
	}

	wg.Wait()

	if cancelled.Load() || ctx.Err() != nil {
		return nil, ctx.Err()
	}

	m.scored.Add(int64(len(pool)))

	matches := make([]Match, 0, len(pool))
	for idx, candidate := range pool {
		if scores[idx] > m.cfg.MaxScore {
			continue
		}
		matches = append(matches, Match{
			Candidate: candidate,
			Score:     scores[idx],
		})
	}

	// Sort by score ascending, then by text for deterministic ordering.
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score < matches[j].Score
		}
		return matches[i].Candidate < matches[j].Candidate
	})

	for idx := range matches {
		matches[idx].Rank = idx + 1
	}

	if m.cache != nil {
		m.cache.Set(key, matches, report.Prefiltered)
	}

	m.rankings.Add(1)

	report.Matches = applyLimit(matches, limit)
	report.Duration = time.Since(start)
	return report, nil
}

// Best returns the single best match for needle, or false if no
// candidate scored within cfg.MaxScore.
func (m *Matcher) Best(ctx context.Context, needle string, candidates []string) (Match, bool, error) {
	report, err := m.Rank(ctx, needle, candidates, 1)
	if err != nil {
		return Match{}, false, err
	}
	if len(report.Matches) == 0 {
		return Match{}, false, nil
	}
	return report.Matches[0], true, nil
}

// GetStats returns a snapshot of the matcher statistics.
func (m *Matcher) GetStats() Stats {
	return Stats{
		Rankings:    m.rankings.Load(),
		Scored:      m.scored.Load(),
		CacheHits:   m.cacheHits.Load(),
		CacheMisses: m.cacheMisses.Load(),
	}
}

// CacheLen returns the number of cached rankings.
func (m *Matcher) CacheLen() int {
	if m.cache == nil {
		return 0
	}
	return m.cache.Len()
}

// ClearCache drops all cached rankings.
func (m *Matcher) ClearCache() {
	if m.cache != nil {
		m.cache.Clear()
	}
}

// cacheKey derives the cache key from the algorithm, the needle, and
// the exact candidate pool. The pool is part of the key: the same
// needle ranked against different candidates must never be served
// another pool's matches. Needle and candidates are length-prefixed
// into the digest so embedded separators cannot collide.
func cacheKey(alg, needle string, candidates []string) string {
	digest := fnv.New64a()

	var lenBuf [8]byte
	writeString := func(s string) {
		binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(s)))
		digest.Write(lenBuf[:])
		digest.Write([]byte(s))
	}

	writeString(needle)
	for _, candidate := range candidates {
		writeString(candidate)
	}

	return alg + "\x00" + strconv.FormatUint(digest.Sum64(), 16)
}

// prefilter keeps only candidates that contain the needle's characters
// as a subsequence. Candidates that fail the subsequence test would
// still score, but they rarely rank, so skipping them cheaply shrinks
// large pools.
func prefilter(needle string, candidates []string) []string {
	results := fuzzy.Find(needle, candidates)
	kept := make([]string, len(results))
	for idx, res := range results {
		kept[idx] = res.Str
	}
	return kept
}

// applyLimit returns at most limit matches; limit <= 0 means unlimited.
func applyLimit(matches []Match, limit int) []Match {
	if limit <= 0 || limit >= len(matches) {
		return matches
	}
	return matches[:limit]
}
