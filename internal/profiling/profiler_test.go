package profiling_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sourcegrep/sourcegrep/internal/profiling"
)

// TestProfiler_SaveAccumulates verifies repeated samples under one name sum
// in the dumped stats.
func TestProfiler_SaveAccumulates(t *testing.T) {
	p := profiling.New()
	p.Save("core_time", 100*time.Millisecond)
	p.Save("core_time", 200*time.Millisecond)
	p.Save("config_time", 50*time.Millisecond)

	stats := p.DumpStats()
	require.Len(t, stats, 2)
	assert.InDelta(t, 0.3, stats["core_time"], 1e-9)
	assert.InDelta(t, 0.05, stats["config_time"], 1e-9)
}

// TestProfiler_Track verifies the tracked function runs and its elapsed
// time is recorded.
func TestProfiler_Track(t *testing.T) {
	p := profiling.New()
	ran := false
	p.Track("phase", func() { ran = true })

	assert.True(t, ran)
	stats := p.DumpStats()
	require.Contains(t, stats, "phase")
	assert.GreaterOrEqual(t, stats["phase"], 0.0)
}

// TestProfiler_EmptyDump verifies a fresh profiler dumps an empty map.
func TestProfiler_EmptyDump(t *testing.T) {
	assert.Empty(t, profiling.New().DumpStats())
}
