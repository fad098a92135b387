package conversations

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tutor-orchestrator/server/internal/tutor/model"
)

// QueryOptimizer normalises learner messages before routing. It has no side
// effects.
type QueryOptimizer struct {
	maxLength int
}

func NewQueryOptimizer(cfg model.ConversationConfig) *QueryOptimizer {
	return &QueryOptimizer{maxLength: cfg.MaxQueryLength}
}

// Optimize drops control characters, collapses whitespace and caps the
// length in runes.
func (q *QueryOptimizer) Optimize(query string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r == utf8.RuneError || (unicode.IsControl(r) && !unicode.IsSpace(r)) {
			return -1
		}
		return r
	}, query)
	out := strings.Join(strings.Fields(cleaned), " ")

	if q.maxLength > 0 && utf8.RuneCountInString(out) > q.maxLength {
		runes := []rune(out)
		out = strings.TrimSpace(string(runes[:q.maxLength]))
	}
	return out
}
