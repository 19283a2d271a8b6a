package systems

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/spaghettifunk/delta/engine/containers"
	"github.com/spaghettifunk/delta/engine/core"
)

var ErrNoWorkers = fmt.Errorf("attempting to create worker pool with less than 1 worker")
var ErrNegativeQueueSize = fmt.Errorf("attempting to create worker pool with a negative queue size")

/**
 * @brief A fixed pool of workers draining a FIFO of jobs. Idle workers sleep
 * on a condition variable; a job already picked up always runs to completion.
 */
type JobSystem[T any] struct {
	logger     *log.Logger
	numWorkers int
	work       func(T)

	mu     sync.Mutex
	cond   *sync.Cond
	queue  *containers.RingQueue[T]
	closed bool
	busy   int

	group errgroup.Group
}

func NewJobSystem[T any](numWorkers int, queueSize int, work func(T), logger *log.Logger) (*JobSystem[T], error) {
	if numWorkers <= 0 {
		return nil, ErrNoWorkers
	}
	if queueSize < 0 {
		return nil, ErrNegativeQueueSize
	}
	if queueSize == 0 {
		queueSize = 1
	}
	js := &JobSystem[T]{
		logger:     core.LoggerOrDefault(logger),
		numWorkers: numWorkers,
		work:       work,
		queue:      containers.NewRingQueue[T](queueSize),
	}
	js.cond = sync.NewCond(&js.mu)
	js.start()
	return js, nil
}

func (js *JobSystem[T]) start() {
	for i := 0; i < js.numWorkers; i++ {
		js.group.Go(func() error {
			for {
				js.mu.Lock()
				for js.queue.IsEmpty() && !js.closed {
					js.cond.Wait()
				}
				if js.closed {
					js.mu.Unlock()
					return nil
				}
				job, _ := js.queue.Dequeue()
				js.busy++
				js.mu.Unlock()

				js.run(job)

				js.mu.Lock()
				js.busy--
				js.mu.Unlock()
			}
		})
	}
}

func (js *JobSystem[T]) run(job T) {
	defer func() {
		if r := recover(); r != nil {
			js.logger.Error("job panicked", "panic", r)
		}
	}()
	js.work(job)
}

/**
 * @brief Submits the provided job to be queued for execution.
 * @param job The job to be executed.
 */
func (js *JobSystem[T]) Submit(job T) error {
	js.mu.Lock()
	defer js.mu.Unlock()
	if js.closed {
		return core.ErrQueueClosed
	}
	js.queue.Enqueue(job)
	js.cond.Signal()
	return nil
}

// Drop removes queued jobs for which match returns true. Jobs already picked
// up by a worker are not affected.
func (js *JobSystem[T]) Drop(match func(T) bool) int {
	js.mu.Lock()
	defer js.mu.Unlock()
	return js.queue.Filter(func(job T) bool { return !match(job) })
}

// Pending returns the number of queued jobs not yet picked up.
func (js *JobSystem[T]) Pending() int {
	js.mu.Lock()
	defer js.mu.Unlock()
	return js.queue.Len()
}

// Busy returns the number of jobs currently running.
func (js *JobSystem[T]) Busy() int {
	js.mu.Lock()
	defer js.mu.Unlock()
	return js.busy
}

/**
 * @brief Shuts the job system down. Queued jobs are discarded; running jobs
 * finish first.
 */
func (js *JobSystem[T]) Shutdown() error {
	js.mu.Lock()
	if js.closed {
		js.mu.Unlock()
		return nil
	}
	js.closed = true
	js.queue.Drain()
	js.cond.Broadcast()
	js.mu.Unlock()
	return js.group.Wait()
}
