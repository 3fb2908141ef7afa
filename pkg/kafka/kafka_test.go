package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func (w *fakeWriter) written() []kafka.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]kafka.Message(nil), w.msgs...)
}

type fakeReader struct {
	in        chan kafka.Message
	mu        sync.Mutex
	committed []int64
}

func newFakeReader(msgs ...kafka.Message) *fakeReader {
	r := &fakeReader{in: make(chan kafka.Message, len(msgs))}
	for _, m := range msgs {
		r.in <- m
	}
	return r
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-r.in:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func (r *fakeReader) commits() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

type funcHandler struct {
	topic string
	fn    func([]byte) error
}

func (h funcHandler) Topic() string { return h.topic }

func (h funcHandler) Handle(_ context.Context, b []byte) error { return h.fn(b) }

func TestProducer_PublishEncodesJSON(t *testing.T) {
	w := &fakeWriter{}
	p, err := NewProducer(WithWriter(w))
	require.NoError(t, err)

	require.NoError(t, p.Publish(context.Background(), "results", []byte("AAPL"), map[string]string{"label": "Buy"}))
	require.NoError(t, p.PublishMessage(context.Background(), "logs", []byte(`{"level":"error"}`)))

	msgs := w.written()
	require.Len(t, msgs, 2)
	assert.Equal(t, "results", msgs[0].Topic)
	assert.Equal(t, []byte("AAPL"), msgs[0].Key)
	var got map[string]string
	require.NoError(t, json.Unmarshal(msgs[0].Value, &got))
	assert.Equal(t, "Buy", got["label"])
	assert.Equal(t, `{"level":"error"}`, string(msgs[1].Value))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestProducer_WriteErrorIsWrapped(t *testing.T) {
	boom := errors.New("broker down")
	p, err := NewProducer(WithWriter(&fakeWriter{err: boom}))
	require.NoError(t, err)
	assert.ErrorIs(t, p.Publish(context.Background(), "results", nil, "x"), boom)
}

func TestNewProducer_RequiresBrokers(t *testing.T) {
	_, err := NewProducer()
	assert.Error(t, err)
}

func newTestConsumer(t *testing.T, reader *fakeReader, opts ...ConsumerOption) *Consumer {
	t.Helper()
	base := []ConsumerOption{
		WithReaderFactory(func(string, *ConsumerConfig) MessageReader { return reader }),
		WithConsumerRegisterer(prometheus.NewRegistry()),
		WithConsumerRetry(2, time.Millisecond, 2*time.Millisecond),
	}
	c, err := NewConsumer(append(base, opts...)...)
	require.NoError(t, err)
	return c
}

func stop(t *testing.T, c *Consumer) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, c.Stop(ctx))
}

func TestConsumer_HandlesAndCommits(t *testing.T) {
	reader := newFakeReader(
		kafka.Message{Offset: 1, Value: []byte("a")},
		kafka.Message{Offset: 2, Value: []byte("b")},
	)
	c := newTestConsumer(t, reader, WithConsumerWorkers(2))

	var seen sync.Map
	c.RegisterHandler(funcHandler{topic: "requests", fn: func(b []byte) error {
		seen.Store(string(b), true)
		return nil
	}})
	require.NoError(t, c.Start())

	assert.Eventually(t, func() bool { return len(reader.commits()) == 2 }, time.Second, 5*time.Millisecond)
	stop(t, c)

	_, okA := seen.Load("a")
	_, okB := seen.Load("b")
	assert.True(t, okA)
	assert.True(t, okB)
}

func TestConsumer_RetriesTransientErrors(t *testing.T) {
	reader := newFakeReader(kafka.Message{Offset: 7, Value: []byte("x")})
	c := newTestConsumer(t, reader)

	var calls atomic.Int32
	c.RegisterHandler(funcHandler{topic: "requests", fn: func([]byte) error {
		if calls.Add(1) < 3 {
			return errors.New("transient")
		}
		return nil
	}})
	require.NoError(t, c.Start())

	assert.Eventually(t, func() bool { return len(reader.commits()) == 1 }, time.Second, 5*time.Millisecond)
	stop(t, c)
	assert.Equal(t, int32(3), calls.Load())
}

func TestConsumer_PermanentErrorSkipsRetryAndCommits(t *testing.T) {
	reader := newFakeReader(kafka.Message{Offset: 3, Value: []byte("bad")})
	c := newTestConsumer(t, reader)

	var calls atomic.Int32
	c.RegisterHandler(funcHandler{topic: "requests", fn: func([]byte) error {
		calls.Add(1)
		return Permanent("ERR_DECODE", errors.New("malformed"))
	}})
	require.NoError(t, c.Start())

	assert.Eventually(t, func() bool { return len(reader.commits()) == 1 }, time.Second, 5*time.Millisecond)
	stop(t, c)
	assert.Equal(t, int32(1), calls.Load())
}

func TestConsumer_ExhaustedRetriesGoToDLQ(t *testing.T) {
	reader := newFakeReader(kafka.Message{Offset: 9, Key: []byte("k"), Value: []byte("v")})
	dlq := &fakeWriter{}
	c := newTestConsumer(t, reader, WithConsumerDLQ("requests.dlq"), WithDLQWriter(dlq))

	c.RegisterHandler(funcHandler{topic: "requests", fn: func([]byte) error {
		return errors.New("always")
	}})
	require.NoError(t, c.Start())

	assert.Eventually(t, func() bool { return len(reader.commits()) == 1 }, time.Second, 5*time.Millisecond)
	stop(t, c)

	msgs := dlq.written()
	require.Len(t, msgs, 1)
	assert.Equal(t, "requests.dlq", msgs[0].Topic)
	assert.Equal(t, []byte("v"), msgs[0].Value)
	assert.True(t, dlq.closed)
}

func TestConsumer_PreservesPartitionOrder(t *testing.T) {
	const partitions, perPartition = 3, 20

	var msgs []kafka.Message
	for off := 0; off < perPartition; off++ {
		for p := 0; p < partitions; p++ {
			msgs = append(msgs, kafka.Message{
				Partition: p,
				Offset:    int64(off),
				Value:     []byte(fmt.Sprintf("%d:%d", p, off)),
			})
		}
	}
	reader := newFakeReader(msgs...)
	c := newTestConsumer(t, reader, WithConsumerWorkers(4))

	var mu sync.Mutex
	order := make(map[int][]int)
	c.RegisterHandler(funcHandler{topic: "requests", fn: func(b []byte) error {
		var p, off int
		if _, err := fmt.Sscanf(string(b), "%d:%d", &p, &off); err != nil {
			return Permanent("ERR_DECODE", err)
		}
		// Later offsets finish faster, so racing workers would reorder them.
		time.Sleep(time.Duration(perPartition-off) * 100 * time.Microsecond)
		mu.Lock()
		order[p] = append(order[p], off)
		mu.Unlock()
		return nil
	}})
	require.NoError(t, c.Start())

	assert.Eventually(t, func() bool { return len(reader.commits()) == len(msgs) }, 5*time.Second, 5*time.Millisecond)
	stop(t, c)

	mu.Lock()
	defer mu.Unlock()
	for p := 0; p < partitions; p++ {
		require.Len(t, order[p], perPartition)
		for i, off := range order[p] {
			assert.Equal(t, i, off, "partition %d", p)
		}
	}
}

func TestLaneFor_StableAndInRange(t *testing.T) {
	for p := 0; p < 16; p++ {
		lane := laneFor("requests", p, 4)
		assert.GreaterOrEqual(t, lane, 0)
		assert.Less(t, lane, 4)
		assert.Equal(t, lane, laneFor("requests", p, 4))
	}
	assert.Equal(t, 0, laneFor("requests", 5, 1))
}

func TestConsumer_StartWithoutHandlers(t *testing.T) {
	c := newTestConsumer(t, newFakeReader())
	assert.Error(t, c.Start())
}

func TestBackoffWithJitterBounds(t *testing.T) {
	for attempt := 1; attempt < 10; attempt++ {
		d := backoffWithJitter(10*time.Millisecond, 80*time.Millisecond, attempt)
		assert.LessOrEqual(t, d, 80*time.Millisecond)
		assert.Greater(t, d, time.Duration(0))
	}
}
