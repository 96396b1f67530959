package profiler

import (
	"log/slog"
	"runtime"
	"time"
)

// Report is one interval worth of frame and memory statistics.
type Report struct {
	FPS           float64
	DrawCalls     int
	HeapMB        float64
	AllocRateMB   float64
	GCCount       uint32
	LastPauseUs   uint64
	MaxPauseUs    uint64
	SysMB         float64
	FramesCounted int
}

// Profiler tracks frame rate, draw calls and memory statistics.
// Outputs a Report to the logger at a configurable interval.
type Profiler struct {
	logger         *slog.Logger
	now            func() time.Time
	frameCount     int
	drawCalls      int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	last           Report
}

// NewProfiler creates a new Profiler reporting every second.
//
// Parameters:
//   - logger: where reports go, nil uses slog.Default()
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(logger *slog.Logger) *Profiler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Profiler{
		logger:         logger,
		now:            time.Now,
		lastTime:       time.Now(),
		updateInterval: time.Second,
	}
}

// SetInterval changes the reporting interval. Non-positive values are ignored.
func (p *Profiler) SetInterval(d time.Duration) {
	if d > 0 {
		p.updateInterval = d
	}
}

// Last returns the most recent report, the zero Report before the first interval elapses.
func (p *Profiler) Last() Report {
	return p.last
}

// Tick should be called once per frame with the number of draws the frame issued.
// Logs a Report when the update interval has elapsed.
//
// Parameters:
//   - drawCalls: draws issued by the frame
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick(drawCalls int) bool {
	p.frameCount++
	p.drawCalls += drawCalls
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	runtime.ReadMemStats(&p.memStats)
	r := Report{
		FPS:           float64(p.frameCount) / elapsed.Seconds(),
		DrawCalls:     p.drawCalls / p.frameCount,
		HeapMB:        float64(p.memStats.Alloc) / 1024 / 1024,
		AllocRateMB:   float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds(),
		GCCount:       p.memStats.NumGC,
		SysMB:         float64(p.memStats.Sys) / 1024 / 1024,
		FramesCounted: p.frameCount,
	}

	if gcCount := r.GCCount; gcCount > 0 {
		// PauseNs is a circular buffer of the last 256 pauses.
		r.LastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000
		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			r.MaxPauseUs = max(r.MaxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	p.logger.Info("profiler",
		slog.Float64("fps", r.FPS),
		slog.Int("draw_calls", r.DrawCalls),
		slog.Float64("heap_mb", r.HeapMB),
		slog.Float64("alloc_rate_mb", r.AllocRateMB),
		slog.Any("gc", r.GCCount),
		slog.Any("gc_last_pause_us", r.LastPauseUs),
		slog.Any("gc_max_pause_us", r.MaxPauseUs),
		slog.Float64("sys_mb", r.SysMB),
	)

	p.last = r
	p.frameCount = 0
	p.drawCalls = 0
	p.lastTime = currentTime
	p.lastGCCount = r.GCCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}
