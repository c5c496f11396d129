package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/yieldfolio/internal/database"
	"github.com/aristath/yieldfolio/internal/scheduler"
)

// SystemStatusResponse represents the system status
type SystemStatusResponse struct {
	Status        string          `json:"status"` // "healthy" or "unhealthy"
	StartedAt     time.Time       `json:"startedAt"`
	UptimeSeconds int64           `json:"uptimeSeconds"`
	GoVersion     string          `json:"goVersion"`
	Goroutines    int             `json:"goroutines"`
	CPUPercent    float64         `json:"cpuPercent"`
	MemoryPercent float64         `json:"memoryPercent"`
	Providers     []string        `json:"providers"`
	Jobs          []JobStatus     `json:"jobs"`
	Database      *database.Stats `json:"database,omitempty"`
}

// JobStatus describes a manually triggerable job
type JobStatus struct {
	Name     string     `json:"name"`
	Running  bool       `json:"running"`
	LastRun  *time.Time `json:"lastRun,omitempty"`
	LastErr  string     `json:"lastError,omitempty"`
	Duration string     `json:"lastDuration,omitempty"`
}

type jobState struct {
	job     scheduler.Job
	running bool
	lastRun *time.Time
	lastErr string
	took    time.Duration
}

// JobRunner runs jobs under the same per-job guard as their scheduled runs
type JobRunner interface {
	RunNow(job scheduler.Job) error
	Running(name string) bool
}

// SystemHandlers serves system monitoring and job trigger endpoints
type SystemHandlers struct {
	db        *database.DB
	providers []string
	runner    JobRunner
	startedAt time.Time
	mu        sync.Mutex
	jobs      map[string]*jobState
	log       zerolog.Logger
}

// NewSystemHandlers creates system handlers
func NewSystemHandlers(db *database.DB, providers []string, jobs []scheduler.Job, runner JobRunner, log zerolog.Logger) *SystemHandlers {
	states := make(map[string]*jobState, len(jobs))
	for _, j := range jobs {
		states[j.Name()] = &jobState{job: j}
	}
	return &SystemHandlers{
		db:        db,
		providers: providers,
		runner:    runner,
		startedAt: time.Now(),
		jobs:      states,
		log:       log.With().Str("handler", "system").Logger(),
	}
}

// HandleSystemStatus returns uptime, runtime, host and database statistics
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, memPercent := h.getSystemStats()

	resp := SystemStatusResponse{
		Status:        "healthy",
		StartedAt:     h.startedAt.UTC(),
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
		GoVersion:     runtime.Version(),
		Goroutines:    runtime.NumGoroutine(),
		CPUPercent:    cpuPercent,
		MemoryPercent: memPercent,
		Providers:     append([]string{}, h.providers...),
		Jobs:          h.jobStatuses(),
	}

	if h.db != nil {
		stats, err := h.db.GetStats()
		if err != nil {
			h.log.Warn().Err(err).Msg("Failed to get database stats")
			resp.Status = "unhealthy"
		} else {
			resp.Database = stats
		}
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// HandleListJobs returns the triggerable jobs and their last outcome
func (h *SystemHandlers) HandleListJobs(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"jobs": h.jobStatuses()})
}

// HandleTriggerJob runs a registered job in the background
// POST /api/system/jobs/{name}
func (h *SystemHandlers) HandleTriggerJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	h.mu.Lock()
	state, ok := h.jobs[name]
	if !ok {
		h.mu.Unlock()
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown job " + name})
		return
	}
	if state.running || h.runner.Running(name) {
		h.mu.Unlock()
		h.writeJSON(w, http.StatusConflict, map[string]string{"error": name + " is already running"})
		return
	}
	state.running = true
	h.mu.Unlock()

	h.log.Info().Str("job", name).Msg("Manual job run triggered")
	go h.runJob(state)

	h.writeJSON(w, http.StatusAccepted, map[string]string{
		"status":  "accepted",
		"message": name + " triggered",
	})
}

func (h *SystemHandlers) runJob(state *jobState) {
	start := time.Now()
	err := h.runner.RunNow(state.job)
	took := time.Since(start)

	if errors.Is(err, scheduler.ErrJobRunning) {
		h.log.Info().Str("job", state.job.Name()).Msg("Manual job run skipped, scheduled run in progress")
	} else if err != nil {
		h.log.Error().Err(err).Str("job", state.job.Name()).Msg("Manual job run failed")
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	state.running = false
	state.lastRun = &start
	state.took = took
	state.lastErr = ""
	if err != nil {
		state.lastErr = err.Error()
	}
}

func (h *SystemHandlers) jobStatuses() []JobStatus {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]JobStatus, 0, len(h.jobs))
	for name, st := range h.jobs {
		js := JobStatus{Name: name, Running: st.running, LastErr: st.lastErr}
		if st.lastRun != nil {
			t := *st.lastRun
			js.LastRun = &t
			js.Duration = st.took.String()
		}
		out = append(out, js)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// getSystemStats calculates CPU and RAM usage percentages over a short sample
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
