// Package toast carries transient user notifications. It is an output channel only:
// nothing read back from it feeds application state.
package toast

import (
	"sync"

	"go.uber.org/zap"
)

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

type Toast struct {
	Kind        Kind
	Title       string
	Description string
}

// Notifier raises toasts. Calls never fail and return nothing.
type Notifier interface {
	Success(title string, description string)
	Error(title string, description string)
}

// maxPending bounds the queue of a browser that never renders.
const maxPending = 16

// Queue buffers toasts until the next render drains them.
type Queue struct {
	mu      sync.Mutex
	pending []Toast
}

func NewQueue() *Queue {
	return &Queue{}
}

func (q *Queue) Success(title string, description string) {
	q.push(Toast{Kind: KindSuccess, Title: title, Description: description})
}

func (q *Queue) Error(title string, description string) {
	q.push(Toast{Kind: KindError, Title: title, Description: description})
}

func (q *Queue) push(t Toast) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == maxPending {
		q.pending = q.pending[1:]
	}
	q.pending = append(q.pending, t)
	zap.L().Debug("Toast raised", zap.String("kind", string(t.Kind)), zap.String("title", t.Title))
}

// Drain returns pending toasts oldest first and empties the queue.
func (q *Queue) Drain() []Toast {
	q.mu.Lock()
	defer q.mu.Unlock()

	drained := q.pending
	q.pending = nil
	return drained
}
