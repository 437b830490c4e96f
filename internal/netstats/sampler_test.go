package netstats

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampler_SeedWindow(t *testing.T) {
	s := NewSampler(rand.New(rand.NewSource(1)))
	samples := s.Samples()

	require.Len(t, samples, WindowSize)
	for i := 1; i < len(samples); i++ {
		assert.Equal(t, time.Minute, samples[i].Timestamp.Sub(samples[i-1].Timestamp))
	}
	for _, sm := range samples {
		assert.GreaterOrEqual(t, sm.BandwidthMbps, 50.0)
		assert.Less(t, sm.BandwidthMbps, 150.0)
		assert.GreaterOrEqual(t, sm.LatencyMs, 5.0)
		assert.Less(t, sm.LatencyMs, 10.0)
		assert.GreaterOrEqual(t, sm.ActiveNodes, 45)
		assert.LessOrEqual(t, sm.ActiveNodes, 54)
		assert.GreaterOrEqual(t, sm.ConnectedUsers, 5000)
		assert.LessOrEqual(t, sm.ConnectedUsers, 5999)
	}
}

func TestSampler_TickDropsOldest(t *testing.T) {
	s := NewSampler(rand.New(rand.NewSource(2)))
	before := s.Samples()

	later := before[len(before)-1].Timestamp.Add(5 * time.Second)
	s.now = func() time.Time { return later }
	s.Tick()

	after := s.Samples()
	require.Len(t, after, WindowSize)
	assert.Equal(t, before[1].Timestamp, after[0].Timestamp)
	assert.Equal(t, later, s.Latest().Timestamp)
}

func TestSampler_Deterministic(t *testing.T) {
	a := NewSampler(rand.New(rand.NewSource(7)))
	b := NewSampler(rand.New(rand.NewSource(7)))

	for i := range a.Samples() {
		assert.Equal(t, a.Samples()[i].BandwidthMbps, b.Samples()[i].BandwidthMbps)
		assert.Equal(t, a.Samples()[i].ActiveNodes, b.Samples()[i].ActiveNodes)
	}
}

func TestSampler_StartStop(t *testing.T) {
	s := NewSampler(rand.New(rand.NewSource(3)))
	s.interval = 5 * time.Millisecond
	first := s.Latest().Timestamp

	s.Start(context.Background())
	assert.Eventually(t, func() bool {
		return !s.Latest().Timestamp.Equal(first)
	}, time.Second, 5*time.Millisecond)
	s.Stop()
	s.Stop()

	assert.Len(t, s.Samples(), WindowSize)
}
