package logx

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tutor-orchestrator/server/internal/core"
)

func TestInitProductionWritesJSONAtInfo(t *testing.T) {
	var buf bytes.Buffer
	Init(LoggerOpts{Environment: core.Production, Output: &buf})
	t.Cleanup(func() { Init() })

	Debug().Msg("hidden")
	Info().Str("session_id", "s-1").Msg("visible")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"session_id":"s-1"`)
	assert.Contains(t, out, `"message":"visible"`)
}

func TestInitLevelOverride(t *testing.T) {
	var buf bytes.Buffer
	Init(LoggerOpts{Environment: core.Development, Level: "warn", Output: &buf})
	t.Cleanup(func() { Init() })

	Info().Msg("quiet")
	Warn().Msg("loud")

	out := buf.String()
	assert.NotContains(t, out, "quiet")
	assert.Contains(t, out, "loud")
}
