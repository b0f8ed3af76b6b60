package profiling

import "time"

// Profiler records wall-clock durations for named phases of a run. It backs
// the optional profiler block in JSON stats output. Single-writer, like the
// rest of the reporting path.
type Profiler struct {
	calls map[string][]float64
}

// New creates an empty Profiler.
func New() *Profiler {
	return &Profiler{calls: make(map[string][]float64)}
}

// Track runs fn and records its elapsed time under name.
func (p *Profiler) Track(name string, fn func()) {
	start := time.Now()
	fn()
	p.Save(name, time.Since(start))
}

// Save records one elapsed duration under name.
func (p *Profiler) Save(name string, d time.Duration) {
	p.calls[name] = append(p.calls[name], d.Seconds())
}

// DumpStats returns total elapsed seconds per phase.
func (p *Profiler) DumpStats() map[string]float64 {
	stats := make(map[string]float64, len(p.calls))
	for name, samples := range p.calls {
		var total float64
		for _, s := range samples {
			total += s
		}
		stats[name] = total
	}
	return stats
}
