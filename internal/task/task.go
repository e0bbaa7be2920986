package task

import (
	"context"
)

// Task represents a unit of background work to be processed
type Task interface {
	// Type returns the task type identifier used in logs
	Type() string

	// Execute runs the task logic
	Execute(ctx context.Context) error
}

// Func adapts a function to the Task interface.
type Func struct {
	Name string
	Fn   func(ctx context.Context) error
}

var _ Task = Func{}

// Type implements Task.
func (f Func) Type() string { return f.Name }

// Execute implements Task.
func (f Func) Execute(ctx context.Context) error { return f.Fn(ctx) }

// QueueReader provides read-only access to the task channel
// allowing workers to consume tasks without the ability to enqueue
type QueueReader interface {
	// Tasks returns a read-only channel for consuming tasks.
	// The channel is closed when the queue is closed.
	Tasks() <-chan Task
}

// QueueWriter provides write access to the task queue
// allowing services to enqueue tasks for processing
type QueueWriter interface {
	// Enqueue adds a task to the queue for processing
	// Returns an error if the queue is full or closed
	Enqueue(task Task) error
}
