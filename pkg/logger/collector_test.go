package logger

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu      sync.Mutex
	topic   string
	batches [][]AggregatedLogEntry
	err     error
}

func (p *recordingPublisher) PublishMessage(_ context.Context, topic string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topic = topic
	p.batches = append(p.batches, payload.([]AggregatedLogEntry))
	return p.err
}

func TestLogCollector_DeduplicatesAndFlushes(t *testing.T) {
	pub := &recordingPublisher{}
	c := NewLogCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 10, Topic: "astro.logs", Publisher: pub})
	defer c.Close()

	for i := 0; i < 3; i++ {
		c.AddLog("error", "analysis failed", map[string]interface{}{"symbol": "AAPL"}, "x.go:1")
	}
	c.AddLog("error", "analysis failed", map[string]interface{}{"symbol": "MSFT"}, "x.go:1")
	c.Flush()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	require.Len(t, pub.batches, 1)
	assert.Equal(t, "astro.logs", pub.topic)
	require.Len(t, pub.batches[0], 2)
	counts := map[int]bool{}
	for _, e := range pub.batches[0] {
		counts[e.Count] = true
	}
	assert.True(t, counts[3])
	assert.True(t, counts[1])
}

func TestLogCollector_ThresholdTriggersFlush(t *testing.T) {
	pub := &recordingPublisher{}
	c := NewLogCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 2, Publisher: pub})
	defer c.Close()

	c.AddLog("error", "a", nil, "")
	c.AddLog("error", "b", nil, "")
	c.Flush()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	require.Len(t, pub.batches, 1)
	assert.Len(t, pub.batches[0], 2)
}

func TestLogCollector_PublishErrorGoesToFallback(t *testing.T) {
	var buf bytes.Buffer
	pub := &recordingPublisher{err: errors.New("broker down")}
	c := NewLogCollector(&CollectionConfig{TimeInterval: time.Hour, Publisher: pub, Fallback: &buf})
	c.AddLog("error", "a", nil, "")
	c.Close()
	assert.Contains(t, buf.String(), "broker down")
}

func TestLogger_ErrorFeedsCollector(t *testing.T) {
	pub := &recordingPublisher{}
	var out bytes.Buffer
	l := NewWriter(&out, 0)
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, Publisher: pub})
	l.Error("boom", String("symbol", "TSLA"), Error(errors.New("x")))
	l.Info("fine")
	l.collector.Flush()
	l.RemoveCollector()

	assert.Contains(t, out.String(), `"message":"boom"`)
	pub.mu.Lock()
	defer pub.mu.Unlock()
	require.Len(t, pub.batches, 1)
	require.Len(t, pub.batches[0], 1)
	assert.Equal(t, "TSLA", pub.batches[0][0].Fields["symbol"])
}
