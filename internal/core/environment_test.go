package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseEnvironment(t *testing.T) {
	tests := []struct {
		in   string
		want Environment
	}{
		{"production", Production},
		{" PROD ", Production},
		{"stage", Staging},
		{"testing", Testing},
		{"test", Testing},
		{"", Development},
		{"something-else", Development},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseEnvironment(tt.in))
		})
	}
}

func TestEnvironmentDecode(t *testing.T) {
	var e Environment
	assert.NoError(t, e.Decode("prod"))
	assert.True(t, e.IsProduction())
	assert.False(t, e.Verbose())

	assert.NoError(t, e.Decode("dev"))
	assert.True(t, e.Verbose())
}
