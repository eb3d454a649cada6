package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"obraspm/internal/dto"
	"obraspm/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueNotificaciones = "jobs:notificaciones"

	JobNotificacionEstado = "requisicion_estado"

	// MaxIntentos is how many times a job runs before it goes to the DLQ.
	MaxIntentos = 3
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// JobHandler processes the payload of one job type. A returned error makes
// the job retry.
type JobHandler interface {
	Process(ctx context.Context, payload json.RawMessage) error
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueNotificacion pushes a status-change notification.
func (d *Dispatcher) EnqueueNotificacion(ctx context.Context, job dto.NotificacionEstadoJob) error {
	return d.enqueue(ctx, QueueNotificaciones, JobNotificacionEstado, job)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return push(ctx, d.rdb, queue, Job{Type: jobType, Payload: data})
}

func push(ctx context.Context, rdb *redis.Client, queue string, job Job) error {
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return rdb.LPush(ctx, queue, encoded).Err()
}

// Pool runs N goroutines blocked on BRPOP, zero CPU when idle.
type Pool struct {
	rdb      *redis.Client
	size     int
	queues   []string
	handlers map[string]JobHandler
	wg       sync.WaitGroup
}

func NewPool(rdb *redis.Client, size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{
		rdb:      rdb,
		size:     size,
		queues:   []string{QueueNotificaciones},
		handlers: make(map[string]JobHandler),
	}
}

// Handle registers h for jobType. Must be called before Start.
func (p *Pool) Handle(jobType string, h JobHandler) {
	p.handlers[jobType] = h
}

// Start launches the workers. They return when ctx is cancelled.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			p.run(ctx, id)
		}(i)
	}
	log.Info().Int("workers", p.size).Strs("queues", p.queues).Msg("worker pool started")
}

// Wait blocks until every worker has exited.
func (p *Pool) Wait() { p.wg.Wait() }

func (p *Pool) run(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Int("worker", id).Msg("worker shutting down")
			return
		default:
		}
		// Blocking pop, waits up to 5s then loops to check ctx
		result, err := p.rdb.BRPop(ctx, 5*time.Second, p.queues...).Result()
		if err != nil || len(result) < 2 {
			continue // timeout or context cancelled
		}
		p.process(ctx, result[0], result[1])
	}
}

func (p *Pool) process(ctx context.Context, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		SendToDLQ(ctx, p.rdb, queue, Job{Type: "desconocido", Payload: json.RawMessage(fmt.Sprintf("%q", raw))}, "payload ilegible")
		return
	}
	job.Attempts++

	h, ok := p.handlers[job.Type]
	if !ok {
		SendToDLQ(ctx, p.rdb, queue, job, "tipo de job sin handler")
		return
	}

	err := h.Process(ctx, job.Payload)
	switch siguientePaso(job.Attempts, err) {
	case pasoHecho:
		infra.Jobs.WithLabelValues(job.Type, "ok").Inc()
		log.Debug().Str("type", job.Type).Int("attempts", job.Attempts).Msg("job processed")
	case pasoReintentar:
		infra.Jobs.WithLabelValues(job.Type, "retry").Inc()
		log.Warn().Err(err).Str("type", job.Type).Int("attempts", job.Attempts).Msg("job failed, retrying")
		if perr := push(ctx, p.rdb, queue, job); perr != nil {
			log.Error().Err(perr).Str("queue", queue).Msg("failed to requeue job")
		}
	case pasoDLQ:
		infra.Jobs.WithLabelValues(job.Type, "dlq").Inc()
		SendToDLQ(ctx, p.rdb, queue, job, err.Error())
	}
}

type paso int

const (
	pasoHecho paso = iota
	pasoReintentar
	pasoDLQ
)

// siguientePaso decides what happens to a job after its attempt-th run.
func siguientePaso(attempt int, err error) paso {
	switch {
	case err == nil:
		return pasoHecho
	case attempt < MaxIntentos:
		return pasoReintentar
	default:
		return pasoDLQ
	}
}
