package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/meetup-social/meetup-api/internal/api/metrics"
	"github.com/meetup-social/meetup-api/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	jobTimeout     = 5 * time.Second
)

// Dispatcher routes follow-up jobs to a fixed set of workers using consistent
// hashing on the target id, guaranteeing per-target ordering. Job failures
// are logged and counted, never returned to the request that caused them.
type Dispatcher struct {
	workers []chan ports.FollowUp
	service ports.FollowUpService
	log     zerolog.Logger

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, service ports.FollowUpService, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ports.FollowUp, numWorkers),
		service: service,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.FollowUp, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers run until Stop closes their
// channels and they have drained them.
func (d *Dispatcher) Start() {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(i, ch)
	}
}

// Enqueue hands job to the worker responsible for its target. It never
// blocks: when the shard is full, or the dispatcher is stopped, the job is
// dropped with a warning.
func (d *Dispatcher) Enqueue(job ports.FollowUp) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.stopped {
		d.drop(job, "dispatcher stopped")
		return
	}

	idx := d.shardIndex(job.TargetID)
	select {
	case d.workers[idx] <- job:
		metrics.FollowUpQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		d.drop(job, "queue full")
	}
}

func (d *Dispatcher) drop(job ports.FollowUp, reason string) {
	metrics.FollowUpsTotal.WithLabelValues(string(job.Kind), "dropped").Inc()
	d.log.Warn().
		Str("kind", string(job.Kind)).
		Str("target_id", job.TargetID).
		Int("delta", job.Delta).
		Str("reason", reason).
		Msg("follow-up dropped")
}

// Stop refuses new jobs and waits for queued ones to finish or for ctx to end.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.stopped {
		d.stopped = true
		for _, ch := range d.workers {
			close(ch)
		}
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// shardIndex maps a target id deterministically to a worker index.
func (d *Dispatcher) shardIndex(targetID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(targetID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(id int, ch <-chan ports.FollowUp) {
	defer d.wg.Done()
	depth := metrics.FollowUpQueueDepth.WithLabelValues(strconv.Itoa(id))

	for job := range ch {
		depth.Set(float64(len(ch)))

		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		err := d.service.Apply(ctx, job)
		cancel()

		if err != nil {
			metrics.FollowUpsTotal.WithLabelValues(string(job.Kind), "failed").Inc()
			d.log.Error().Err(err).
				Str("kind", string(job.Kind)).
				Str("target_id", job.TargetID).
				Int("worker_id", id).
				Msg("follow-up failed")
			continue
		}
		metrics.FollowUpsTotal.WithLabelValues(string(job.Kind), "applied").Inc()
	}
}
