package jobs

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/atlas/engine/core"
)

// Task is a unit of background work, typically a storage read. OnComplete
// runs on the worker goroutine with whatever Run produced; state that must
// only change on the owning goroutine has to be handed back through a
// completion queue, never mutated here.
type Task struct {
	Run        func() ([]byte, error)
	OnComplete func(data []byte, err error)
}

var ErrNoWorkers = fmt.Errorf("attempting to create worker pool with less than 1 worker")
var ErrNegativeChannelSize = fmt.Errorf("attempting to create worker pool with a negative channel size")

// Pool is a fixed-size worker pool draining a buffered task queue.
type Pool struct {
	numWorkers int
	taskQueue  chan Task
	log        core.Logger
	wg         sync.WaitGroup
}

func NewPool(numWorkers, channelSize int, log core.Logger) (*Pool, error) {
	if numWorkers <= 0 {
		return nil, ErrNoWorkers
	}
	if channelSize < 0 {
		return nil, ErrNegativeChannelSize
	}

	p := &Pool{
		numWorkers: numWorkers,
		taskQueue:  make(chan Task, channelSize),
		log:        log,
	}

	p.start()

	return p, nil
}

func (p *Pool) start() {
	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for task := range p.taskQueue {
				data, err := task.Run()
				if err != nil {
					p.log.Debugf("pool task failed: %s", err.Error())
				}
				if task.OnComplete != nil {
					task.OnComplete(data, err)
				}
			}
		}()
	}
}

/**
 * @brief Shuts the pool down, waiting for in-flight tasks to drain.
 */
func (p *Pool) Shutdown() error {
	close(p.taskQueue)
	p.wg.Wait()
	return nil
}

/**
 * @brief Submits the provided task to be queued for execution.
 */
func (p *Pool) Submit(t Task) {
	p.taskQueue <- t
}

// SubmitNonBlocking adds work to the pool and returns immediately even when
// the queue is full.
func (p *Pool) SubmitNonBlocking(t Task) {
	go p.Submit(t)
}
