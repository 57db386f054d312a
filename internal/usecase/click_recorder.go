package usecase

import (
	"context"
	"sync"
	"time"

	"shortlink/internal/domain"

	"go.uber.org/zap"
)

// recorderTask is one unit of work on the click pipeline. Exactly one of
// click or query is set.
type recorderTask struct {
	click *domain.ClickEvent
	query *statsQuery
}

type statsQuery struct {
	urlID  int64
	userID string
	from   time.Time
	to     time.Time
	reply  chan statsReply
}

type statsReply struct {
	urlStats  *domain.URLClickStats
	userStats *domain.UserClickStats
	err       error
}

// ClickRecorder decouples the hot redirect path from click storage latency.
//
// Record appends to an unbounded in-memory FIFO and returns immediately; a
// single consumer goroutine drains it in order, so click writes are totally
// ordered and a stats query enqueued after N writes observes at least those
// N writes. Persistence failures on the background path are logged and the
// click dropped; the original caller already got success from the enqueue.
type ClickRecorder struct {
	repo   ClickRepository
	logger *zap.Logger

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []recorderTask
	closed bool

	done chan struct{} // closed when the consumer exits
}

// NewClickRecorder creates a recorder and starts its consumer goroutine.
func NewClickRecorder(repo ClickRepository, logger *zap.Logger) *ClickRecorder {
	r := &ClickRecorder{
		repo:   repo,
		logger: logger,
		done:   make(chan struct{}),
	}
	r.cond = sync.NewCond(&r.mu)
	go r.consume()
	return r
}

// Record enqueues a click write and returns without waiting for storage.
// It fails only with domain.ErrRecorderClosed once the pipeline has shut
// down.
func (r *ClickRecorder) Record(click domain.ClickEvent) error {
	return r.enqueue(recorderTask{click: &click})
}

// URLStats answers a per-URL aggregation through the consumer, so it sees
// every click recorded before it was enqueued. The call blocks until the
// consumer replies, ctx is done, or the pipeline shuts down.
func (r *ClickRecorder) URLStats(ctx context.Context, urlID int64, from, to time.Time) (*domain.URLClickStats, error) {
	q := &statsQuery{urlID: urlID, from: from, to: to, reply: make(chan statsReply, 1)}
	if err := r.enqueue(recorderTask{query: q}); err != nil {
		return nil, err
	}
	select {
	case rep := <-q.reply:
		return rep.urlStats, rep.err
	case <-r.done:
		return nil, domain.ErrRecorderClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// UserStats answers a per-user aggregation with the same ordering guarantee
// as URLStats.
func (r *ClickRecorder) UserStats(ctx context.Context, userID string, from, to time.Time) (*domain.UserClickStats, error) {
	q := &statsQuery{userID: userID, from: from, to: to, reply: make(chan statsReply, 1)}
	if err := r.enqueue(recorderTask{query: q}); err != nil {
		return nil, err
	}
	select {
	case rep := <-q.reply:
		return rep.userStats, rep.err
	case <-r.done:
		return nil, domain.ErrRecorderClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops intake, waits for the consumer to drain the queue, and
// returns once every pending task has been handled.
func (r *ClickRecorder) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		<-r.done
		return
	}
	r.closed = true
	r.cond.Signal()
	r.mu.Unlock()
	<-r.done
}

func (r *ClickRecorder) enqueue(task recorderTask) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return domain.ErrRecorderClosed
	}
	r.queue = append(r.queue, task)
	r.cond.Signal()
	return nil
}

func (r *ClickRecorder) consume() {
	defer close(r.done)
	for {
		r.mu.Lock()
		for len(r.queue) == 0 && !r.closed {
			r.cond.Wait()
		}
		if len(r.queue) == 0 {
			r.mu.Unlock()
			return
		}
		task := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()

		r.handle(task)
	}
}

func (r *ClickRecorder) handle(task recorderTask) {
	// Background work carries its own lifetime, detached from any request.
	ctx := context.Background()

	if task.click != nil {
		if err := r.repo.RecordClick(ctx, *task.click); err != nil {
			// Click loss is accepted; the enqueuing caller already succeeded.
			r.logger.Warn("dropping click, persistence failed",
				zap.Int64("url_id", task.click.URLID),
				zap.Error(err),
			)
		}
		return
	}

	q := task.query
	var rep statsReply
	if q.userID != "" {
		rep.userStats, rep.err = r.repo.UserClickStats(ctx, q.userID, q.from, q.to)
	} else {
		rep.urlStats, rep.err = r.repo.URLClickStats(ctx, q.urlID, q.from, q.to)
	}
	q.reply <- rep // buffered, never blocks the consumer
}
