package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		mode  string
		debug bool
		info  bool
	}{
		{mode: "", debug: true, info: true},
		{mode: "development", debug: true, info: true},
		{mode: "Production", debug: false, info: true},
		{mode: "quiet", debug: false, info: false},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			log, err := New(tt.mode)
			require.NoError(t, err)
			assert.Equal(t, tt.debug, log.Core().Enabled(zapcore.DebugLevel))
			assert.Equal(t, tt.info, log.Core().Enabled(zapcore.InfoLevel))
			assert.True(t, log.Core().Enabled(zapcore.ErrorLevel))
		})
	}
}

func TestNew_UnknownMode(t *testing.T) {
	_, err := New("verbose")
	assert.Error(t, err)
}
