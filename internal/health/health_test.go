package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(ctx context.Context) error { return s.err }

func TestStatus_Healthy(t *testing.T) {
	m := NewMonitor(stubPinger{}, "test")
	rep := m.Status(context.Background())

	assert.Equal(t, "healthy", rep.Status)
	assert.Equal(t, "test", rep.Environment)
	require.Contains(t, rep.Services, "database")
	assert.Equal(t, "healthy", rep.Services["database"].Status)
	assert.Equal(t, "connected", rep.Services["database"].State)
	assert.Equal(t, "healthy", rep.Services["server"].Status)
	assert.GreaterOrEqual(t, rep.Uptime, 0.0)
	assert.False(t, rep.Timestamp.IsZero())
}

func TestStatus_DatabaseDown(t *testing.T) {
	m := NewMonitor(stubPinger{err: errors.New("connection refused")}, "test")
	rep := m.Status(context.Background())

	assert.Equal(t, "unhealthy", rep.Status)
	assert.Equal(t, "unhealthy", rep.Services["database"].Status)
	assert.Equal(t, "disconnected", rep.Services["database"].State)
	assert.Contains(t, rep.Services["database"].Message, "connection refused")
}

func TestStatus_NoDatabaseConfigured(t *testing.T) {
	m := NewMonitor(nil, "test")
	rep := m.Status(context.Background())

	assert.Equal(t, "unhealthy", rep.Status)
	assert.Equal(t, "disconnected", rep.Services["database"].State)
}

func TestStatus_SystemMetrics(t *testing.T) {
	m := NewMonitor(stubPinger{}, "test")
	rep := m.Status(context.Background())

	assert.NotEmpty(t, rep.System.Memory.Total)
	assert.NotEmpty(t, rep.System.Memory.Used)
	assert.GreaterOrEqual(t, rep.System.Memory.UsagePercent, 0.0)
	assert.LessOrEqual(t, rep.System.Memory.UsagePercent, 100.0)
	assert.Greater(t, rep.System.CPU.Cores, 0)
	assert.Greater(t, rep.System.CPU.Goroutines, 0)
	assert.Greater(t, rep.System.PID, 0)
	assert.NotEmpty(t, rep.System.GoVersion)
}

func TestDetailed(t *testing.T) {
	m := NewMonitor(stubPinger{}, "test")
	rep := m.Detailed(context.Background())

	assert.Equal(t, "healthy", rep.Status)
	assert.False(t, rep.Details.StartTime.IsZero())
	assert.Greater(t, rep.Details.ProcessID, 0)
	assert.NotEmpty(t, rep.Details.Platform)
	assert.NotEmpty(t, rep.Details.Architecture)
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "0 Bytes", formatBytes(0))
	assert.Equal(t, "1 KB", formatBytes(1024))
	assert.Equal(t, "1.5 MB", formatBytes(1536*1024))
}
