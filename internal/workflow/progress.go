package workflow

import "sync"

// Progress is a percentage in [0, 100] for one batch
type Progress struct {
	mu    sync.Mutex
	value float64
}

// Reset sets the starting value shown before the first item completes
func (p *Progress) Reset(start float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.value = clamp(start)
}

// Step sets the value to 100*done/total, replacing the starting value
func (p *Progress) Step(done, total int) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if total <= 0 {
		return p.value
	}
	p.value = clamp(100 * float64(done) / float64(total))
	return p.value
}

// Complete forces the value to 100
func (p *Progress) Complete() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.value = 100
	return p.value
}

func (p *Progress) Value() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}
