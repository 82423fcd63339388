package workers

import (
	"context"
	"time"
)

// Sweeper tears down idle resources and reports how many it removed.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// ScreenSweeperWorker periodically unmounts screens of browsers that went away.
type ScreenSweeperWorker struct {
	Screens     Sweeper
	RunInterval time.Duration
}

func (w *ScreenSweeperWorker) Tasks() []WorkerTask {
	return []WorkerTask{
		{Name: "idle_screens", Fn: w.Screens.Sweep},
	}
}

func (w *ScreenSweeperWorker) Start(ctx context.Context) {
	StartPeriodicWorker(ctx, "screen_sweeper", w.RunInterval, w.Tasks())
}
