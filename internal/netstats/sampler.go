package netstats

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

const (
	WindowSize     = 31
	SampleInterval = 5 * time.Second
)

// Sample is one synthetic network gauge reading
type Sample struct {
	Timestamp      time.Time `json:"timestamp"`
	BandwidthMbps  float64   `json:"bandwidth"`
	LatencyMs      float64   `json:"latency"`
	ActiveNodes    int       `json:"active_nodes"`
	ConnectedUsers int       `json:"connected_users"`
}

// Sampler keeps a rolling window of generated samples.
// The values are mock data; nothing is measured.
type Sampler struct {
	interval time.Duration
	now      func() time.Time

	mu      sync.RWMutex
	rng     *rand.Rand
	samples []Sample

	cancel context.CancelFunc
	done   chan struct{}
}

// NewSampler seeds the window with one sample per minute ending at now
func NewSampler(rng *rand.Rand) *Sampler {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	s := &Sampler{
		interval: SampleInterval,
		now:      time.Now,
		rng:      rng,
	}
	s.seed()
	return s
}

func (s *Sampler) seed() {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = make([]Sample, 0, WindowSize)
	for i := WindowSize - 1; i >= 0; i-- {
		s.samples = append(s.samples, s.generate(now.Add(-time.Duration(i)*time.Minute)))
	}
}

// generate must be called with mu held
func (s *Sampler) generate(ts time.Time) Sample {
	return Sample{
		Timestamp:      ts,
		BandwidthMbps:  s.rng.Float64()*100 + 50,
		LatencyMs:      s.rng.Float64()*5 + 5,
		ActiveNodes:    s.rng.Intn(10) + 45,
		ConnectedUsers: s.rng.Intn(1000) + 5000,
	}
}

// Tick appends a new sample and drops the oldest beyond the window
func (s *Sampler) Tick() {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = append(s.samples, s.generate(now))
	if len(s.samples) > WindowSize {
		s.samples = append(s.samples[:0:0], s.samples[len(s.samples)-WindowSize:]...)
	}
}

// Samples returns the window, oldest first
func (s *Sampler) Samples() []Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Sample, len(s.samples))
	copy(out, s.samples)
	return out
}

// Latest returns the newest sample
func (s *Sampler) Latest() Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.samples[len(s.samples)-1]
}

func (s *Sampler) Start(ctx context.Context) {
	if s.cancel != nil {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				s.Tick()
			}
		}
	}()
}

func (s *Sampler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
}
