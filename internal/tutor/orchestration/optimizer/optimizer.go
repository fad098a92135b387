package optimizer

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/tutor-orchestrator/server/internal/tutor/model"
	logx "github.com/tutor-orchestrator/server/pkg/logger"
)

const defaultCacheSize = 1024

// Metrics is a point-in-time snapshot read by the analytics layer.
type Metrics struct {
	CacheSize             int     `json:"cacheSize"`
	SessionsTracked       int64   `json:"sessionsTracked"`
	ActiveSessions        int     `json:"activeSessions"`
	TotalPatternsRecorded int64   `json:"totalPatternsRecorded"`
	CacheHits             int64   `json:"cacheHits"`
	CacheMisses           int64   `json:"cacheMisses"`
	CacheHitRate          float64 `json:"cacheHitRate"`
}

type cacheKey struct {
	tool        string
	fingerprint uint64
}

type cacheEntry struct {
	ready    bool
	warmedAt time.Time
}

// sessionLog is the per-session history. Its mutex is never held while
// another session's lock is taken.
type sessionLog struct {
	mu          sync.Mutex
	patterns    []model.OrchestrationPattern
	transitions map[string]map[string]int
	lastSeen    time.Time
}

func newSessionLog(now time.Time) *sessionLog {
	return &sessionLog{transitions: map[string]map[string]int{}, lastSeen: now}
}

func (s *sessionLog) append(p model.OrchestrationPattern, now time.Time) {
	if n := len(s.patterns); n > 0 {
		countTransition(s.transitions, s.patterns[n-1], p)
	}
	s.patterns = append(s.patterns, p)
	s.lastSeen = now
}

// Optimizer keeps the warm cache and per-session pattern histories. It is
// constructed once per process and shared by reference.
type Optimizer struct {
	cache          *lru.Cache[cacheKey, cacheEntry]
	maxPredictions int
	cacheMaxAge    time.Duration
	sessionIdleTTL time.Duration

	sessions sync.Map // sessionID -> *sessionLog

	sessionsTracked  atomic.Int64
	patternsRecorded atomic.Int64
	hits             atomic.Int64
	misses           atomic.Int64

	now func() time.Time
}

func New(cfg model.OptimizerConfig) (*Optimizer, error) {
	size := cfg.CacheSize
	if size <= 0 {
		size = defaultCacheSize
	}
	cache, err := lru.New[cacheKey, cacheEntry](size)
	if err != nil {
		return nil, err
	}
	maxPredictions := cfg.MaxPredictions
	if maxPredictions <= 0 {
		maxPredictions = model.DefaultOptimizerConfig().MaxPredictions
	}
	return &Optimizer{
		cache:          cache,
		maxPredictions: maxPredictions,
		cacheMaxAge:    cfg.CacheMaxAge,
		sessionIdleTTL: cfg.SessionIdleTTL,
		now:            time.Now,
	}, nil
}

// PreWarmTools marks every tool ready for the given context. Re-warming an
// entry refreshes its timestamp without growing the cache. It returns the
// number of newly added entries.
func (o *Optimizer) PreWarmTools(tools []string, ctx map[string]any) int {
	fp := Fingerprint(ctx)
	now := o.now()
	added := 0
	for _, tool := range tools {
		if tool == "" {
			continue
		}
		key := cacheKey{tool: tool, fingerprint: fp}
		if !o.cache.Contains(key) {
			added++
		}
		o.cache.Add(key, cacheEntry{ready: true, warmedAt: now})
	}
	return added
}

// IsWarm reports whether tool was pre-warmed for ctx and counts the lookup.
func (o *Optimizer) IsWarm(tool string, ctx map[string]any) bool {
	entry, ok := o.cache.Get(cacheKey{tool: tool, fingerprint: Fingerprint(ctx)})
	if ok && entry.ready {
		o.hits.Add(1)
		return true
	}
	o.misses.Add(1)
	return false
}

func (o *Optimizer) session(sessionID string) (*sessionLog, bool) {
	if v, ok := o.sessions.Load(sessionID); ok {
		return v.(*sessionLog), false
	}
	v, loaded := o.sessions.LoadOrStore(sessionID, newSessionLog(o.now()))
	return v.(*sessionLog), !loaded
}

// RecordPattern appends pattern to the session history.
func (o *Optimizer) RecordPattern(sessionID string, pattern model.OrchestrationPattern) {
	s, created := o.session(sessionID)
	if created {
		o.sessionsTracked.Add(1)
	}

	s.mu.Lock()
	s.append(pattern.Clone(), o.now())
	s.mu.Unlock()

	o.patternsRecorded.Add(1)
}

// Restore hydrates an unknown session from persisted history. A session that
// is already tracked in-process is left untouched.
func (o *Optimizer) Restore(sessionID string, patterns []model.OrchestrationPattern) bool {
	if len(patterns) == 0 {
		return false
	}
	s, created := o.session(sessionID)
	if !created {
		return false
	}
	o.sessionsTracked.Add(1)

	now := o.now()
	s.mu.Lock()
	for _, p := range patterns {
		s.append(p.Clone(), now)
	}
	s.mu.Unlock()
	return true
}

// History returns a copy of the session's recorded patterns.
func (o *Optimizer) History(sessionID string) []model.OrchestrationPattern {
	v, ok := o.sessions.Load(sessionID)
	if !ok {
		return nil
	}
	s := v.(*sessionLog)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.OrchestrationPattern, len(s.patterns))
	for i, p := range s.patterns {
		out[i] = p.Clone()
	}
	return out
}

// PredictNextTools ranks the tools that historically followed the current
// suggested tool, in this session and in recent. Ties break by name.
func (o *Optimizer) PredictNextTools(sessionID string, current model.UserState, recent []model.OrchestrationPattern) []string {
	anchor := current.Tooling.SuggestedTool
	if anchor == "" {
		anchor = current.Tooling.CurrentToolAppropriate
	}
	if anchor == "" {
		return []string{}
	}

	counts := map[string]int{}
	if v, ok := o.sessions.Load(sessionID); ok {
		s := v.(*sessionLog)
		s.mu.Lock()
		for tool, n := range s.transitions[anchor] {
			counts[tool] += n
		}
		s.mu.Unlock()
	}
	if len(recent) > 1 {
		extra := map[string]map[string]int{}
		for i := 1; i < len(recent); i++ {
			countTransition(extra, recent[i-1], recent[i])
		}
		for tool, n := range extra[anchor] {
			counts[tool] += n
		}
	}
	delete(counts, anchor)

	tools := make([]string, 0, len(counts))
	for tool := range counts {
		tools = append(tools, tool)
	}
	sort.Slice(tools, func(i, j int) bool {
		if counts[tools[i]] != counts[tools[j]] {
			return counts[tools[i]] > counts[tools[j]]
		}
		return tools[i] < tools[j]
	})
	if len(tools) > o.maxPredictions {
		tools = tools[:o.maxPredictions]
	}
	return tools
}

func (o *Optimizer) GetOptimizationMetrics() Metrics {
	hits, misses := o.hits.Load(), o.misses.Load()
	m := Metrics{
		CacheSize:             o.cache.Len(),
		SessionsTracked:       o.sessionsTracked.Load(),
		TotalPatternsRecorded: o.patternsRecorded.Load(),
		CacheHits:             hits,
		CacheMisses:           misses,
	}
	if total := hits + misses; total > 0 {
		m.CacheHitRate = float64(hits) / float64(total)
	}
	o.sessions.Range(func(_, _ any) bool {
		m.ActiveSessions++
		return true
	})
	return m
}

// ClearOldCache evicts entries warmed more than maxAge ago. maxAge <= 0
// empties the cache.
func (o *Optimizer) ClearOldCache(maxAge time.Duration) int {
	if maxAge <= 0 {
		n := o.cache.Len()
		o.cache.Purge()
		return n
	}
	cutoff := o.now().Add(-maxAge)
	removed := 0
	for _, key := range o.cache.Keys() {
		entry, ok := o.cache.Peek(key)
		if ok && entry.warmedAt.Before(cutoff) {
			if o.cache.Remove(key) {
				removed++
			}
		}
	}
	return removed
}

// EvictSession drops a session history.
func (o *Optimizer) EvictSession(sessionID string) bool {
	_, ok := o.sessions.LoadAndDelete(sessionID)
	return ok
}

// EvictIdleSessions drops sessions not recorded to within maxIdle.
func (o *Optimizer) EvictIdleSessions(maxIdle time.Duration) int {
	if maxIdle <= 0 {
		return 0
	}
	cutoff := o.now().Add(-maxIdle)
	evicted := 0
	o.sessions.Range(func(key, value any) bool {
		s := value.(*sessionLog)
		s.mu.Lock()
		idle := s.lastSeen.Before(cutoff)
		s.mu.Unlock()
		if idle {
			o.sessions.Delete(key)
			evicted++
		}
		return true
	})
	return evicted
}

// Run sweeps stale cache entries and idle sessions every interval until ctx
// is done.
func (o *Optimizer) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cleared := 0
			if o.cacheMaxAge > 0 {
				cleared = o.ClearOldCache(o.cacheMaxAge)
			}
			evicted := o.EvictIdleSessions(o.sessionIdleTTL)
			if cleared > 0 || evicted > 0 {
				logx.Debug().
					Int("cache_cleared", cleared).
					Int("sessions_evicted", evicted).
					Msg("Optimizer sweep")
			}
		}
	}
}

// countTransition records every tool of next as following every tool of prev.
func countTransition(t map[string]map[string]int, prev, next model.OrchestrationPattern) {
	for _, from := range prev.Tools {
		row := t[from]
		if row == nil {
			row = map[string]int{}
			t[from] = row
		}
		for _, to := range next.Tools {
			row[to]++
		}
	}
}
