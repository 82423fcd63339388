package workers

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// WorkerTask is one named step of a worker cycle. Fn returns how many items it handled.
type WorkerTask struct {
	Name string
	Fn   func(ctx context.Context) (int, error)
}

// StartPeriodicWorker runs one cycle right away, then one per interval until ctx is done.
func StartPeriodicWorker(ctx context.Context, workerName string, interval time.Duration, tasks []WorkerTask) {
	zap.L().Info("Starting worker",
		zap.String("worker", workerName),
		zap.Duration("interval", interval))

	RunCycle(ctx, workerName, tasks)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("Worker shutting down", zap.String("worker", workerName))
			return
		case <-ticker.C:
			RunCycle(ctx, workerName, tasks)
		}
	}
}

// RunCycle executes every task once and logs per-task counts. A failing task does not stop the others.
func RunCycle(ctx context.Context, workerName string, tasks []WorkerTask) map[string]int {
	startTime := time.Now()
	counts := make(map[string]int, len(tasks))
	fields := []zap.Field{zap.String("worker", workerName)}

	for _, task := range tasks {
		count, err := task.Fn(ctx)
		if err != nil {
			zap.L().Error("Worker task failed",
				zap.String("worker", workerName),
				zap.String("task", task.Name),
				zap.Error(err))
		}
		counts[task.Name] = count
		fields = append(fields, zap.Int(task.Name, count))
	}

	fields = append(fields, zap.Duration("duration", time.Since(startTime)))
	zap.L().Debug("Worker cycle complete", fields...)
	return counts
}
