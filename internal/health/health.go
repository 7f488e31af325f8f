package health

import (
	"context"
	"fmt"
	"math"
	"os"
	"runtime"
	"time"
)

// memory usage above this percentage flips overall status to unhealthy
const memoryThresholdPercent = 90.0

// Pinger checks database connectivity. *mongo.Client satisfies it through a
// small adapter in main.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Monitor produces liveness snapshots. It is constructed once at startup and
// injected into the health handlers; there is no package-level instance.
type Monitor struct {
	start       time.Time
	db          Pinger
	environment string
}

func NewMonitor(db Pinger, environment string) *Monitor {
	return &Monitor{start: time.Now(), db: db, environment: environment}
}

type ServiceStatus struct {
	Status  string `json:"status"`
	State   string `json:"state,omitempty"`
	Message string `json:"message"`
}

type MemoryStats struct {
	Total        string  `json:"total"`
	Used         string  `json:"used"`
	Free         string  `json:"free"`
	UsagePercent float64 `json:"usagePercent"`
}

type CPUStats struct {
	Cores      int `json:"cores"`
	Goroutines int `json:"goroutines"`
}

type SystemMetrics struct {
	Uptime    float64     `json:"uptime"` // seconds
	Memory    MemoryStats `json:"memory"`
	CPU       CPUStats    `json:"cpu"`
	Platform  string      `json:"platform"`
	GoVersion string      `json:"goVersion"`
	PID       int         `json:"pid"`
}

type Report struct {
	Status      string                   `json:"status"`
	Timestamp   time.Time                `json:"timestamp"`
	Uptime      float64                  `json:"uptime"`
	Services    map[string]ServiceStatus `json:"services"`
	System      SystemMetrics            `json:"system"`
	Environment string                   `json:"environment"`
}

type DetailedReport struct {
	Report
	Details Details `json:"details"`
}

type Details struct {
	StartTime    time.Time `json:"startTime"`
	ProcessID    int       `json:"processId"`
	GoVersion    string    `json:"goVersion"`
	Platform     string    `json:"platform"`
	Architecture string    `json:"architecture"`
	Hostname     string    `json:"hostname"`
}

func (m *Monitor) systemMetrics() SystemMetrics {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	total := ms.Sys
	used := ms.HeapAlloc
	var pct float64
	if total > 0 {
		pct = math.Round(float64(used)/float64(total)*100*100) / 100
	}
	return SystemMetrics{
		Uptime: time.Since(m.start).Seconds(),
		Memory: MemoryStats{
			Total:        formatBytes(total),
			Used:         formatBytes(used),
			Free:         formatBytes(total - used),
			UsagePercent: pct,
		},
		CPU: CPUStats{
			Cores:      runtime.NumCPU(),
			Goroutines: runtime.NumGoroutine(),
		},
		Platform:  runtime.GOOS,
		GoVersion: runtime.Version(),
		PID:       os.Getpid(),
	}
}

func (m *Monitor) checkDatabase(ctx context.Context) ServiceStatus {
	if m.db == nil {
		return ServiceStatus{Status: "unhealthy", State: "disconnected", Message: "Database connection is not configured"}
	}
	if err := m.db.Ping(ctx); err != nil {
		return ServiceStatus{Status: "unhealthy", State: "disconnected", Message: err.Error()}
	}
	return ServiceStatus{Status: "healthy", State: "connected", Message: "Database connection is active"}
}

// Status builds the basic health snapshot. Overall status is healthy only
// when the database responds and memory usage is under the threshold.
func (m *Monitor) Status(ctx context.Context) Report {
	system := m.systemMetrics()
	db := m.checkDatabase(ctx)

	status := "healthy"
	if db.Status != "healthy" || system.Memory.UsagePercent >= memoryThresholdPercent {
		status = "unhealthy"
	}

	return Report{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Uptime:    system.Uptime,
		Services: map[string]ServiceStatus{
			"database": db,
			"server":   {Status: "healthy", Message: "Server is running"},
		},
		System:      system,
		Environment: m.environment,
	}
}

// Detailed adds process/host identification to the basic snapshot.
func (m *Monitor) Detailed(ctx context.Context) DetailedReport {
	hostname, _ := os.Hostname()
	return DetailedReport{
		Report: m.Status(ctx),
		Details: Details{
			StartTime:    m.start.UTC(),
			ProcessID:    os.Getpid(),
			GoVersion:    runtime.Version(),
			Platform:     runtime.GOOS,
			Architecture: runtime.GOARCH,
			Hostname:     hostname,
		},
	}
}

func formatBytes(b uint64) string {
	if b == 0 {
		return "0 Bytes"
	}
	sizes := []string{"Bytes", "KB", "MB", "GB", "TB"}
	i := int(math.Floor(math.Log(float64(b)) / math.Log(1024)))
	if i >= len(sizes) {
		i = len(sizes) - 1
	}
	v := float64(b) / math.Pow(1024, float64(i))
	return fmt.Sprintf("%v %s", math.Round(v*100)/100, sizes[i])
}
