// Package health collects process, traffic and dependency status for the status
// endpoints. Traffic counters live in Redis and are written by middleware.HealthMarker.
package health

import (
	"context"
	"encoding/json"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis keys for the shared request counters.
const (
	KeyReqTotal  = "health:global:req_total"
	KeyReqErrors = "health:global:req_errors"
	KeyResTime   = "health:global:res_time_total"
	KeyResCount  = "health:global:res_count"
	KeyStartTime = "health:global:start_time"
	KeyLastReq   = "health:global:last_request"
	KeyErrorLog  = "health:global:error_log"
)

// ErrorLogSize caps the error log list.
const ErrorLogSize = 50

// Dependency states.
const (
	StatusConnected     = "connected"
	StatusDisconnected  = "disconnected"
	StatusError         = "error"
	StatusWritable      = "writable"
	StatusNotConfigured = "not_configured"
)

// DBPinger is optional for health check. If nil, database is reported as disconnected.
type DBPinger interface {
	Ping() error
}

// CollectResult is the payload of /health/json and the dashboard.
type CollectResult struct {
	Status       string               `json:"status"`
	Runtime      RuntimeInfo          `json:"runtime"`
	Traffic      TrafficInfo          `json:"traffic"`
	Dependencies map[string]DepStatus `json:"dependencies"`
}

type RuntimeInfo struct {
	UptimeSeconds int64      `json:"uptimeSeconds"`
	Memory        MemoryInfo `json:"memory"`
	Goroutines    int        `json:"goroutines"`
	Platform      string     `json:"platform"`
	GoVersion     string     `json:"goVersion"`
}

type MemoryInfo struct {
	Alloc    int `json:"alloc"`
	HeapUsed int `json:"heapUsed"`
}

type TrafficInfo struct {
	TotalRequests   int         `json:"totalRequests"`
	SuccessCount    int         `json:"successCount"`
	FailedCount     int         `json:"failedCount"`
	SuccessRate     string      `json:"successRate"`
	AvgResponseTime interface{} `json:"avgResponseTime"`
	LastRequest     interface{} `json:"lastRequest"`
}

type DepStatus struct {
	Status string      `json:"status"`
	PingMs interface{} `json:"pingMs"`
}

// Checker gathers health data. Rdb is optional; without it traffic stays at zero and
// Redis is reported as not configured. Dirs maps a dependency name to a directory
// that must be writable (QR images, invitation documents).
type Checker struct {
	Rdb  *redis.Client
	DB   DBPinger
	Dirs map[string]string
}

// Collect returns the current health snapshot. Status is "ok" when the database is
// connected and no other dependency reports a failure.
func (h *Checker) Collect(ctx context.Context) CollectResult {
	result := CollectResult{Dependencies: make(map[string]DepStatus)}

	dbStatus, dbPing := StatusDisconnected, (*int64)(nil)
	if h.DB != nil {
		start := time.Now()
		if err := h.DB.Ping(); err == nil {
			ms := time.Since(start).Milliseconds()
			dbStatus, dbPing = StatusConnected, &ms
		} else {
			dbStatus = StatusError
		}
	}
	result.Dependencies["database"] = DepStatus{Status: dbStatus, PingMs: dbPing}

	stats := TrafficInfo{AvgResponseTime: 0, SuccessRate: "100"}
	startTimeMs := time.Now().UnixMilli()
	redisStatus, redisPing := StatusNotConfigured, (*int64)(nil)
	if h.Rdb != nil {
		start := time.Now()
		if err := h.Rdb.Ping(ctx).Err(); err == nil {
			ms := time.Since(start).Milliseconds()
			redisStatus, redisPing = StatusConnected, &ms
			startTimeMs = h.readTraffic(ctx, &stats, startTimeMs)
		} else {
			redisStatus = StatusError
		}
	}
	result.Dependencies["redis"] = DepStatus{Status: redisStatus, PingMs: redisPing}

	for name, dir := range h.Dirs {
		result.Dependencies[name] = DepStatus{Status: dirStatus(dir)}
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	uptimeSec := (time.Now().UnixMilli() - startTimeMs) / 1000
	if uptimeSec < 0 {
		uptimeSec = 0
	}
	result.Runtime = RuntimeInfo{
		UptimeSeconds: uptimeSec,
		Memory:        MemoryInfo{Alloc: int(m.Alloc / 1024 / 1024), HeapUsed: int(m.HeapInuse / 1024 / 1024)},
		Goroutines:    runtime.NumGoroutine(),
		Platform:      runtime.GOOS + " (" + runtime.GOARCH + ")",
		GoVersion:     runtime.Version(),
	}
	result.Traffic = stats

	result.Status = "ok"
	if dbStatus != StatusConnected {
		result.Status = "issue"
	}
	for _, d := range result.Dependencies {
		if d.Status == StatusError {
			result.Status = "issue"
		}
	}
	return result
}

func (h *Checker) readTraffic(ctx context.Context, stats *TrafficInfo, startTimeMs int64) int64 {
	rdb := h.Rdb
	totalReq, _ := rdb.Get(ctx, KeyReqTotal).Result()
	totalErr, _ := rdb.Get(ctx, KeyReqErrors).Result()
	totalTime, _ := rdb.Get(ctx, KeyResTime).Result()
	resCount, _ := rdb.Get(ctx, KeyResCount).Result()
	startTimeStr, _ := rdb.Get(ctx, KeyStartTime).Result()
	lastReqStr, _ := rdb.Get(ctx, KeyLastReq).Result()

	if startTimeStr != "" {
		if t, err := strconv.ParseInt(startTimeStr, 10, 64); err == nil {
			startTimeMs = t
		}
	} else {
		rdb.Set(ctx, KeyStartTime, startTimeMs, 0)
	}

	stats.TotalRequests, _ = strconv.Atoi(totalReq)
	stats.FailedCount, _ = strconv.Atoi(totalErr)
	stats.SuccessCount = stats.TotalRequests - stats.FailedCount
	if stats.TotalRequests > 0 {
		stats.SuccessRate = strconv.FormatFloat(float64(stats.SuccessCount)/float64(stats.TotalRequests)*100, 'f', 1, 64)
	}
	timeSum, _ := strconv.ParseFloat(totalTime, 64)
	countSum, _ := strconv.Atoi(resCount)
	if countSum > 0 {
		stats.AvgResponseTime = strconv.FormatFloat(timeSum/float64(countSum), 'f', 2, 64)
	}
	if lastReqStr != "" {
		var lastReq map[string]interface{}
		_ = json.Unmarshal([]byte(lastReqStr), &lastReq)
		stats.LastRequest = lastReq
	}
	return startTimeMs
}

// dirStatus creates dir if needed and probes it with a temp file.
func dirStatus(dir string) string {
	if dir == "" {
		return StatusNotConfigured
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return StatusError
	}
	f, err := os.CreateTemp(dir, ".health-*")
	if err != nil {
		return StatusError
	}
	name := f.Name()
	f.Close()
	_ = os.Remove(name)
	return StatusWritable
}

// ErrorEntry is one element of the error log.
type ErrorEntry struct {
	Time    time.Time `json:"time"`
	Path    string    `json:"path"`
	Method  string    `json:"method"`
	Status  int       `json:"status"`
	Message string    `json:"message"`
}

// LogError prepends e to the error log and trims it to ErrorLogSize.
func LogError(ctx context.Context, rdb *redis.Client, e ErrorEntry) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.LPush(ctx, KeyErrorLog, b)
		p.LTrim(ctx, KeyErrorLog, 0, ErrorLogSize-1)
		return nil
	})
	return err
}

// RecentErrors returns the error log, newest first. Unreadable entries are skipped.
func RecentErrors(ctx context.Context, rdb *redis.Client) ([]map[string]interface{}, error) {
	entries, err := rdb.LRange(ctx, KeyErrorLog, 0, ErrorLogSize-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]map[string]interface{}, 0, len(entries))
	for _, s := range entries {
		var m map[string]interface{}
		if json.Unmarshal([]byte(s), &m) == nil && m != nil {
			out = append(out, m)
		}
	}
	return out, nil
}

// Reset clears every counter and restarts the uptime clock.
func Reset(ctx context.Context, rdb *redis.Client, now time.Time) error {
	keys := []string{KeyReqTotal, KeyReqErrors, KeyResTime, KeyResCount, KeyStartTime, KeyLastReq, KeyErrorLog}
	if err := rdb.Del(ctx, keys...).Err(); err != nil {
		return err
	}
	return rdb.Set(ctx, KeyStartTime, strconv.FormatInt(now.UnixMilli(), 10), 0).Err()
}
