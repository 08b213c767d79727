package log

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestPackageHelpersUseLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))

	Infow("job finished", "job_id", "abc", "evaluated", 684)
	Warnf("retrying year %d", 2021)
	Debugw("progress", "done", 10)

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, "job finished", entries[0].Message)
	assert.Equal(t, "abc", entries[0].ContextMap()["job_id"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "retrying year 2021", entries[1].Message)
}

func TestInit(t *testing.T) {
	require.NoError(t, Init(true))
	assert.NotNil(t, GetSugaredLogger())
	Sync()
}
