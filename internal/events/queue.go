package events

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kode4food/caravan"
	"github.com/kode4food/caravan/topic"

	"github.com/kode4food/argyll/wizard/pkg/flow"
	"github.com/kode4food/argyll/wizard/pkg/log"
)

type (
	// Queue delivers flow events sequentially in bounded batches
	Queue struct {
		prod        topic.Producer[flow.Event]
		cons        topic.Consumer[flow.Event]
		handler     Handler
		filter      Filter
		stop        chan struct{}
		batchSize   int
		wg          sync.WaitGroup
		startOnce   sync.Once
		stopOnce    sync.Once
		cleanupOnce sync.Once
	}

	// Handler processes a batch of flow events
	Handler func([]flow.Event) error
)

var ErrHandlerPanicked = errors.New("event handler panicked")

const (
	DefaultBatchSize = 64

	maxRetries = 3
	retryDelay = 100 * time.Millisecond
)

// NewQueue creates a flow event queue delivering to handler in batches of
// at most batchSize events. A nil filter accepts every event
func NewQueue(handler Handler, batchSize int, filter Filter) *Queue {
	t := caravan.NewTopic[flow.Event]()
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Queue{
		prod:      t.NewProducer(),
		cons:      t.NewConsumer(),
		handler:   handler,
		filter:    filter,
		stop:      make(chan struct{}),
		batchSize: batchSize,
	}
}

// Start begins delivering queued events
func (q *Queue) Start() {
	q.startOnce.Do(func() {
		q.wg.Go(func() {
			for {
				select {
				case <-q.stop:
					return
				case ev, ok := <-q.cons.Receive():
					if !ok {
						return
					}
					q.handleBatch(q.collectBatch(ev))
				}
			}
		})
	})
}

// Listener returns the flow.Listener that publishes into the queue
func (q *Queue) Listener() flow.Listener {
	return q.Publish
}

// Publish queues ev unless the queue's filter rejects it
func (q *Queue) Publish(ev flow.Event) {
	if q.filter != nil && !q.filter(ev) {
		return
	}
	q.prod.Send() <- ev
}

// Flush waits for queued events to be delivered and stops the queue
func (q *Queue) Flush() {
	q.stopOnce.Do(func() {
		close(q.stop)
	})
	q.wg.Wait()
	q.cleanupOnce.Do(q.flush)
}

// Cancel immediately stops the queue without delivering remaining events
func (q *Queue) Cancel() {
	q.stopOnce.Do(func() {
		close(q.stop)
	})
	q.wg.Wait()
	q.cleanupOnce.Do(q.close)
}

func (q *Queue) collectBatch(first flow.Event) []flow.Event {
	batch := []flow.Event{first}
	for len(batch) < q.batchSize {
		select {
		case ev, ok := <-q.cons.Receive():
			if !ok {
				return batch
			}
			batch = append(batch, ev)
		default:
			return batch
		}
	}
	return batch
}

func (q *Queue) flush() {
	for {
		select {
		case ev, ok := <-q.cons.Receive():
			if !ok {
				q.close()
				return
			}
			q.handleBatch(q.collectBatch(ev))
		default:
			q.close()
			return
		}
	}
}

func (q *Queue) close() {
	q.prod.Close()
	q.cons.Close()
}

func (q *Queue) handleBatch(batch []flow.Event) {
	for attempt := range maxRetries {
		err := q.tryHandleBatch(batch)
		if err == nil {
			return
		}
		slog.Error("Flow event batch failed",
			slog.Int("batch_size", len(batch)),
			slog.Int("attempt", attempt+1),
			slog.Int("max_attempts", maxRetries),
			log.Error(err))
		if attempt < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}
	slog.Error("Flow event batch dropped",
		slog.Int("batch_size", len(batch)))
}

func (q *Queue) tryHandleBatch(batch []flow.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanicked, r)
		}
	}()
	return q.handler(batch)
}
