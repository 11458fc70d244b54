package logs

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name string
		want zerolog.Level
	}{
		{name: "", want: zerolog.WarnLevel},
		{name: "debug", want: zerolog.DebugLevel},
		{name: " INFO ", want: zerolog.InfoLevel},
		{name: "error", want: zerolog.ErrorLevel},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.name)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}

	_, err := ParseLevel("chatty")
	assert.Error(t, err)
}

func TestNew_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, zerolog.WarnLevel, false)

	log.Debug().Msg("hidden")
	log.Warn().Str("branch", "main").Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "branch=main")
}

func TestNew_VerboseEnablesDebug(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, zerolog.ErrorLevel, true)

	log.Debug().Msg("walking graph")

	assert.Contains(t, buf.String(), "walking graph")
}
