package calcqueue

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/yanqian/farmcast/internal/domain/irrigation"
)

// Handler executes one calculation job.
type Handler func(ctx context.Context, job irrigation.CalculationRequest)

// Queue carries calculation jobs to a worker.
type Queue interface {
	Enqueue(ctx context.Context, job irrigation.CalculationRequest) error
	SetHandler(handler Handler)
	Close() error
}

// QueuedCalculator hands jobs to a queue and lets the prediction service poll for the result.
type QueuedCalculator struct {
	queue Queue
}

// NewQueuedCalculator wraps queue as an asynchronous calculator.
func NewQueuedCalculator(queue Queue) *QueuedCalculator {
	return &QueuedCalculator{queue: queue}
}

// Calculate enqueues req and returns irrigation.ErrCalculationPending once accepted.
func (c *QueuedCalculator) Calculate(ctx context.Context, req irrigation.CalculationRequest) (irrigation.CalculationResult, error) {
	if err := c.queue.Enqueue(ctx, req); err != nil {
		return irrigation.CalculationResult{}, err
	}
	return irrigation.CalculationResult{}, irrigation.ErrCalculationPending
}

var _ irrigation.Calculator = (*QueuedCalculator)(nil)

// Completer records finished calculations.
type Completer interface {
	CompleteCalculation(ctx context.Context, id uuid.UUID, result irrigation.CalculationResult) (irrigation.PredictionRecord, error)
}

// Worker runs queued jobs through a synchronous calculator and stores the result.
type Worker struct {
	calculator irrigation.Calculator
	completer  Completer
	logger     *slog.Logger
}

// NewWorker builds the job handler side of the queue.
func NewWorker(calculator irrigation.Calculator, completer Completer, logger *slog.Logger) *Worker {
	return &Worker{calculator: calculator, completer: completer, logger: logger.With("component", "calcqueue.worker")}
}

// Handle is a Handler.
func (w *Worker) Handle(ctx context.Context, job irrigation.CalculationRequest) {
	logger := w.logger.With("prediction_id", job.ID)
	result, err := w.calculator.Calculate(ctx, job)
	if err != nil {
		logger.Warn("queued calculation failed", "error", err)
		return
	}
	if _, err := w.completer.CompleteCalculation(ctx, job.ID, result); err != nil {
		logger.Warn("queued calculation result not stored", "error", err)
		return
	}
	logger.Info("queued calculation completed")
}
