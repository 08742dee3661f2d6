package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/delivery/internal/domain"
	"github.com/vladislavdragonenkov/delivery/internal/storage/memory"
)

func orderPlaced(id, orderID string) domain.OutboxMessage {
	return domain.OutboxMessage{
		ID:            id,
		AggregateType: domain.AggregateTypeOrder,
		AggregateID:   orderID,
		EventType:     domain.EventTypeOrderPlaced,
		Payload:       []byte(`{"orderId":` + orderID + `,"totalPrice":21000}`),
	}
}

func TestWorker_ProcessOnce_MarkSent(t *testing.T) {
	t.Parallel()

	repo := &stubOutboxRepo{pending: []domain.OutboxMessage{orderPlaced("msg-1", "1")}}
	publisher := &stubPublisher{}
	registry := prometheus.NewRegistry()

	worker := NewWorker(repo, publisher,
		WithRegisterer(registry),
		WithRetryBaseDelay(0),
		WithMaxAttempts(3),
	)

	sent := worker.ProcessOnce(context.Background())

	require.Equal(t, 1, sent)
	require.Equal(t, []string{"msg-1"}, repo.sentIDs)
	require.Empty(t, repo.failedIDs)
	require.Equal(t, 1, publisher.calls())
	require.Equal(t, 1.0, testutil.ToFloat64(worker.metrics.publishAttempts.WithLabelValues(domain.EventTypeOrderPlaced, resultSent)))
}

func TestWorker_ProcessOnce_MarkFailedAndDLQAfterRetries(t *testing.T) {
	t.Parallel()

	repo := &stubOutboxRepo{pending: []domain.OutboxMessage{orderPlaced("msg-2", "2")}}
	publisher := &stubPublisher{err: errors.New("broker unavailable")}
	dlqPublisher := &stubPublisher{}

	worker := NewWorker(repo, publisher,
		WithRegisterer(prometheus.NewRegistry()),
		WithDLQPublisher(dlqPublisher),
		WithRetryBaseDelay(0),
		WithMaxAttempts(3),
	)

	sent := worker.ProcessOnce(context.Background())

	require.Zero(t, sent)
	require.Equal(t, 3, publisher.calls())
	require.Empty(t, repo.sentIDs)
	require.Equal(t, []string{"msg-2"}, repo.failedIDs)
	require.Equal(t, 1, dlqPublisher.calls())

	var letter DeadLetter
	require.NoError(t, json.Unmarshal(dlqPublisher.last().Payload, &letter))
	require.Equal(t, "msg-2", letter.OutboxID)
	require.Equal(t, domain.EventTypeOrderPlaced, letter.EventType)
	require.Contains(t, letter.PublishError, "broker unavailable")
	require.JSONEq(t, `{"orderId":2,"totalPrice":21000}`, string(letter.Payload))
}

func TestWorker_ProcessOnce_SuccessAfterRetry(t *testing.T) {
	t.Parallel()

	repo := &stubOutboxRepo{pending: []domain.OutboxMessage{orderPlaced("msg-3", "3")}}
	publisher := &stubPublisher{
		sequenceErrors: []error{
			errors.New("attempt 1"),
			errors.New("attempt 2"),
			nil,
		},
	}

	worker := NewWorker(repo, publisher,
		WithRegisterer(prometheus.NewRegistry()),
		WithRetryBaseDelay(0),
		WithMaxAttempts(3),
	)

	worker.ProcessOnce(context.Background())

	require.Equal(t, 3, publisher.calls())
	require.Equal(t, []string{"msg-3"}, repo.sentIDs)
	require.Empty(t, repo.failedIDs)
}

func TestWorker_ProcessOnce_WithMemoryRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := memory.NewOutboxRepository()
	for _, msg := range []domain.OutboxMessage{orderPlaced("a", "1"), orderPlaced("b", "2")} {
		_, err := repo.Enqueue(ctx, msg)
		require.NoError(t, err)
	}
	publisher := &stubPublisher{}

	worker := NewWorker(repo, publisher, WithRegisterer(prometheus.NewRegistry()), WithBatchSize(1))

	require.Equal(t, 1, worker.ProcessOnce(ctx))
	require.Equal(t, 1, worker.ProcessOnce(ctx))
	require.Zero(t, worker.ProcessOnce(ctx))
	require.Empty(t, repo.AllPending())
	require.Equal(t, 0.0, testutil.ToFloat64(worker.metrics.pendingRecords))
}

func TestWorker_PublishReceivesDeadline(t *testing.T) {
	t.Parallel()

	repo := &stubOutboxRepo{pending: []domain.OutboxMessage{orderPlaced("msg-4", "4")}}
	publisher := &stubPublisher{}

	worker := NewWorker(repo, publisher,
		WithRegisterer(prometheus.NewRegistry()),
		WithPublishTimeout(time.Second),
	)
	worker.ProcessOnce(context.Background())

	require.True(t, publisher.sawDeadline)
}

func TestWorker_RetryBackoff(t *testing.T) {
	t.Parallel()

	worker := NewWorker(nil, nil, WithRegisterer(prometheus.NewRegistry()), WithRetryBaseDelay(10*time.Millisecond))

	require.Equal(t, 10*time.Millisecond, worker.retryBackoff(1))
	require.Equal(t, 20*time.Millisecond, worker.retryBackoff(2))
	require.Equal(t, 40*time.Millisecond, worker.retryBackoff(3))
	require.Equal(t, time.Duration(1<<63-1), worker.retryBackoff(200))
}

func TestWorker_Run_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	worker := NewWorker(&stubOutboxRepo{}, &stubPublisher{},
		WithRegisterer(prometheus.NewRegistry()),
		WithPollInterval(5*time.Millisecond),
		WithRetryBaseDelay(0),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		worker.Run(ctx)
	}()

	time.Sleep(15 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("worker did not stop on context cancel")
	}
}

type stubOutboxRepo struct {
	mu        sync.Mutex
	pending   []domain.OutboxMessage
	sentIDs   []string
	failedIDs []string
}

func (s *stubOutboxRepo) Enqueue(_ context.Context, msg domain.OutboxMessage) (domain.OutboxMessage, error) {
	return msg, nil
}

func (s *stubOutboxRepo) PullPending(_ context.Context, limit int) ([]domain.OutboxMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 || limit >= len(s.pending) {
		return append([]domain.OutboxMessage(nil), s.pending...), nil
	}
	return append([]domain.OutboxMessage(nil), s.pending[:limit]...), nil
}

func (s *stubOutboxRepo) Stats(context.Context) (domain.OutboxStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := domain.OutboxStats{PendingCount: len(s.pending)}
	if len(s.pending) > 0 {
		stats.OldestPendingAt = time.Now().UTC().Add(-time.Second)
	}
	return stats, nil
}

func (s *stubOutboxRepo) MarkSent(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sentIDs = append(s.sentIDs, id)
	return nil
}

func (s *stubOutboxRepo) MarkFailed(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failedIDs = append(s.failedIDs, id)
	return nil
}

type stubPublisher struct {
	mu             sync.Mutex
	err            error
	sequenceErrors []error
	callCount      int
	published      []domain.OutboxMessage
	sawDeadline    bool
}

func (s *stubPublisher) Publish(ctx context.Context, event domain.OutboxMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.callCount++
	s.published = append(s.published, event)
	if _, ok := ctx.Deadline(); ok {
		s.sawDeadline = true
	}
	if len(s.sequenceErrors) > 0 {
		err := s.sequenceErrors[0]
		s.sequenceErrors = s.sequenceErrors[1:]
		return err
	}
	return s.err
}

func (s *stubPublisher) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.callCount
}

func (s *stubPublisher) last() domain.OutboxMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.published[len(s.published)-1]
}

var _ domain.OutboxRepository = (*stubOutboxRepo)(nil)
var _ domain.OutboxPublisher = (*stubPublisher)(nil)
