package jobqueue

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
)

// PanicError is returned for a job that panicked.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("job panicked: %v\n%s", e.Value, e.Stack)
}

// Queue runs jobs one at a time in submission order. The zero value is ready
// to use.
type Queue struct {
	mu   sync.Mutex
	tail chan struct{}
}

// Submit reserves the next slot and returns a channel that receives the
// job's result once it has run. The slot is reserved before Submit returns,
// so two Submit calls from one goroutine always run in call order.
func (q *Queue) Submit(job func() error) <-chan error {
	done := make(chan struct{})
	result := make(chan error, 1)

	q.mu.Lock()
	prev := q.tail
	q.tail = done
	q.mu.Unlock()

	go func() {
		if prev != nil {
			<-prev
		}
		err := run(job, done)
		result <- err
	}()
	return result
}

// Do submits job and waits for it. Cancelling ctx stops the wait but not the
// job, which still runs in its slot.
func (q *Queue) Do(ctx context.Context, job func() error) error {
	select {
	case err := <-q.Submit(job):
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Idle blocks until every job submitted so far has finished.
func (q *Queue) Idle(ctx context.Context) error {
	return q.Do(ctx, func() error { return nil })
}

func run(job func() error, done chan struct{}) (err error) {
	defer close(done)
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return job()
}
