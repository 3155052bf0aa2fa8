package routes

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"vidstego/failures"
	"vidstego/logger"
	"vidstego/payload"
	"vidstego/success"
	"vidstego/video"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	GoVersion string            `json:"go_version"`
	Uptime    string            `json:"uptime"`
	StartTime string            `json:"start_time"`
	Checks    map[string]string `json:"checks"`
}

var startTime = time.Now()

// formatUptime formats a duration into days, hours, minutes, seconds
func formatUptime(d time.Duration) string {
	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
}

// HealthHandler reports whether the media tools and stores are usable.
// Any failing check turns the status to degraded with a 503.
func (api *API) HealthHandler(w http.ResponseWriter, r *http.Request) {
	logger.Debugf("Health check request: method=%s, remoteAddr=%s", r.Method, r.RemoteAddr)

	checks := map[string]string{}
	healthy := true
	record := func(name string, err error) {
		if err != nil {
			checks[name] = err.Error()
			healthy = false
			return
		}
		checks[name] = "ok"
	}
	if video.Available() {
		record("ffmpeg", nil)
	} else {
		record("ffmpeg", fmt.Errorf("ffmpeg/ffprobe not registered"))
	}
	record("payloads", payload.CheckHealth())
	record("success", success.CheckHealth())
	record("failures", failures.CheckHealth())

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   version,
		GoVersion: runtime.Version(),
		Uptime:    formatUptime(time.Since(startTime)),
		StartTime: startTime.Format("2006-01-02 15:04:05 MST"),
		Checks:    checks,
	}
	status := http.StatusOK
	if !healthy {
		response.Status = "degraded"
		status = http.StatusServiceUnavailable
		logger.Warnf("Health check degraded: %v", checks)
	}
	writeJSON(w, status, response)
}
