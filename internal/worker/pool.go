package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Samsung-SCSA-25th-Team2/tennis-web-app-be-sub000/internal/models"
	"github.com/Samsung-SCSA-25th-Team2/tennis-web-app-be-sub000/pkg/logger"
)

const taskTimeout = 5 * time.Second

var (
	// ErrBackpressure is returned by Submit when the queue is full
	ErrBackpressure = errors.New("worker pool queue full (backpressure)")

	// ErrPoolClosed is returned by Submit after Shutdown
	ErrPoolClosed = errors.New("worker pool is shut down")
)

// MessageStore persists chat messages
type MessageStore interface {
	SaveChatMessage(ctx context.Context, msg *models.ChatMessage) error
}

// PersistTask represents a chat message waiting to be written to the database
type PersistTask struct {
	Message *models.ChatMessage
}

// WorkerPool manages a pool of workers for asynchronous database writes
type WorkerPool struct {
	jobs        chan PersistTask
	workerCount int
	store       MessageStore
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	metrics     *PoolMetrics

	// guards jobs against sends after close
	closeMu sync.RWMutex
	closed  bool
}

// PoolMetrics tracks worker pool performance
type PoolMetrics struct {
	mu              sync.RWMutex
	processed       int64
	failed          int64
	backpressure    int64
	totalProcessing time.Duration
}

// MetricsSnapshot is a point-in-time copy of the pool metrics
type MetricsSnapshot struct {
	Processed          int64  `json:"processed"`
	Failed             int64  `json:"failed"`
	BackpressureEvents int64  `json:"backpressure_events"`
	AvgProcessingTime  string `json:"avg_processing_time"`
	QueueUtilization   string `json:"queue_utilization"`
}

// NewWorkerPool creates a new worker pool
func NewWorkerPool(workerCount, queueSize int, store MessageStore) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		jobs:        make(chan PersistTask, queueSize),
		workerCount: workerCount,
		store:       store,
		ctx:         ctx,
		cancel:      cancel,
		metrics:     &PoolMetrics{},
	}
}

// Start initializes and starts all worker goroutines
func (wp *WorkerPool) Start() {
	for i := 1; i <= wp.workerCount; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}

	logger.Info("Worker pool started", "workers", wp.workerCount, "queue_size", cap(wp.jobs))
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for {
		select {
		case <-wp.ctx.Done():
			logger.Debug("Worker shutting down", "worker", id)
			return

		case task, ok := <-wp.jobs:
			if !ok {
				return
			}
			wp.processTask(id, task)
		}
	}
}

// processTask writes one message, recovering from panics so the worker survives
func (wp *WorkerPool) processTask(workerID int, task PersistTask) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Worker panic recovered", "worker", workerID, "panic", r, "message_id", task.Message.ID)
			wp.metrics.incrementFailed()
		}
	}()

	startTime := time.Now()

	ctx, cancel := context.WithTimeout(wp.ctx, taskTimeout)
	defer cancel()

	err := wp.store.SaveChatMessage(ctx, task.Message)

	processingTime := time.Since(startTime)

	if err != nil {
		logger.Error("Failed to persist chat message",
			"worker", workerID,
			"message_id", task.Message.ID,
			"match_id", task.Message.MatchID,
			"error", err,
			"took", processingTime.String(),
		)
		wp.metrics.incrementFailed()
		return
	}

	logger.Debug("Persisted chat message", "worker", workerID, "message_id", task.Message.ID, "took", processingTime.String())
	wp.metrics.recordSuccess(processingTime)
}

// Submit attempts to add a task to the queue without blocking
func (wp *WorkerPool) Submit(task PersistTask) error {
	wp.closeMu.RLock()
	defer wp.closeMu.RUnlock()

	if wp.closed {
		return ErrPoolClosed
	}

	select {
	case wp.jobs <- task:
		return nil
	default:
		logger.Warn("Worker pool queue full, dropping database write", "message_id", task.Message.ID)
		wp.metrics.incrementBackpressure()
		return ErrBackpressure
	}
}

// Shutdown stops accepting tasks and waits for queued ones to finish
func (wp *WorkerPool) Shutdown(timeout time.Duration) error {
	wp.closeMu.Lock()
	if wp.closed {
		wp.closeMu.Unlock()
		return nil
	}
	wp.closed = true
	close(wp.jobs)
	wp.closeMu.Unlock()

	done := make(chan struct{})
	go func() {
		wp.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		wp.cancel()
		m := wp.GetMetrics()
		logger.Info("Worker pool drained",
			"processed", m.Processed,
			"failed", m.Failed,
			"backpressure_events", m.BackpressureEvents,
			"avg_processing_time", m.AvgProcessingTime,
		)
		return nil

	case <-time.After(timeout):
		wp.cancel()
		return fmt.Errorf("worker pool shutdown timed out after %v", timeout)
	}
}

// GetMetrics returns a snapshot of the pool metrics
func (wp *WorkerPool) GetMetrics() MetricsSnapshot {
	wp.metrics.mu.RLock()
	defer wp.metrics.mu.RUnlock()

	avgProcessing := time.Duration(0)
	if wp.metrics.processed > 0 {
		avgProcessing = wp.metrics.totalProcessing / time.Duration(wp.metrics.processed)
	}

	return MetricsSnapshot{
		Processed:          wp.metrics.processed,
		Failed:             wp.metrics.failed,
		BackpressureEvents: wp.metrics.backpressure,
		AvgProcessingTime:  avgProcessing.String(),
		QueueUtilization:   fmt.Sprintf("%d/%d", len(wp.jobs), cap(wp.jobs)),
	}
}

func (pm *PoolMetrics) recordSuccess(duration time.Duration) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.processed++
	pm.totalProcessing += duration
}

func (pm *PoolMetrics) incrementFailed() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.failed++
}

func (pm *PoolMetrics) incrementBackpressure() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.backpressure++
}
