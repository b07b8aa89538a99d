package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gigbridge/matchd/internal/adapters/mq/queue"
	"github.com/gigbridge/matchd/internal/adapters/mq/worker"
	. "github.com/smartystreets/goconvey/convey"
)

// recordingRunner captures every rescore call.
type recordingRunner struct {
	mu       sync.Mutex
	calls    []string
	expected int
	fail     bool
	done     chan struct{}
}

func newRecordingRunner(expected int) *recordingRunner {
	r := &recordingRunner{done: make(chan struct{})}
	if expected == 0 {
		close(r.done)
	}
	r.expected = expected
	return r
}

func (r *recordingRunner) Rescore(_ context.Context, requestID string, force bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, requestID)
	if len(r.calls) == r.expected {
		close(r.done)
	}
	if r.fail {
		return errors.New("rescore failed")
	}
	_ = force
	return nil
}

func (r *recordingRunner) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func TestWorkerPool(t *testing.T) {
	Convey("Given a worker pool over an in-memory queue", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		Reset(cancel)

		q := queue.NewInMemoryQueue(queue.WithCapacity(16))

		Convey("When jobs are enqueued", func() {
			runner := newRecordingRunner(3)
			pool := worker.NewPool(2, q, runner)
			pool.Start(ctx)

			So(q.Enqueue(ctx, queue.Job{RequestID: "r1", Force: true}), ShouldBeTrue)
			So(q.Enqueue(ctx, queue.Job{RequestID: "r2", Force: true}), ShouldBeTrue)
			So(q.Enqueue(ctx, queue.Job{RequestID: "r3", Force: true}), ShouldBeTrue)

			Convey("Then every job is processed", func() {
				select {
				case <-runner.done:
				case <-time.After(2 * time.Second):
				}
				So(runner.callCount(), ShouldEqual, 3)
				pool.Stop()
			})
		})

		Convey("When a job fails", func() {
			runner := newRecordingRunner(2)
			runner.fail = true
			pool := worker.NewPool(1, q, runner)
			pool.Start(ctx)

			So(q.Enqueue(ctx, queue.Job{RequestID: "r1"}), ShouldBeTrue)
			So(q.Enqueue(ctx, queue.Job{RequestID: "r2"}), ShouldBeTrue)

			Convey("Then the worker keeps processing subsequent jobs", func() {
				select {
				case <-runner.done:
				case <-time.After(2 * time.Second):
				}
				So(runner.callCount(), ShouldEqual, 2)
				pool.Stop()
			})
		})

		Convey("When the pool is stopped without work", func() {
			runner := newRecordingRunner(0)
			pool := worker.NewPool(3, q, runner)
			pool.Start(ctx)

			Convey("Then Stop returns promptly and is idempotent", func() {
				pool.Stop()
				pool.Stop()
				So(runner.callCount(), ShouldEqual, 0)
			})
		})
	})
}
