package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"eventhub/internal/metrics"
	"eventhub/internal/model"
	"eventhub/internal/platform/rabbitmq"
)

var errMalformedActivity = errors.New("malformed activity payload")

type ActivityWriter interface {
	Create(ctx context.Context, activity *model.Activity) error
}

// ActivityPersistWorker drains the activity queue into the activities table.
type ActivityPersistWorker struct {
	conn      *amqp.Connection
	repo      ActivityWriter
	queueName string
	logger    zerolog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewActivityPersistWorker(conn *amqp.Connection, repo ActivityWriter, queueName string, logger zerolog.Logger) *ActivityPersistWorker {
	return &ActivityPersistWorker{
		conn:      conn,
		repo:      repo,
		queueName: queueName,
		logger:    logger.With().Str("component", "activity_worker").Str("queue", queueName).Logger(),
	}
}

func (w *ActivityPersistWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	if _, err := rabbitmq.DeclareQueue(ch, w.queueName); err != nil {
		_ = ch.Close()
		cancel()
		return err
	}
	if err := ch.Qos(32, 0, false); err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("set worker qos failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					w.logger.Warn().Msg("delivery channel closed")
					return
				}
				w.ack(d, w.handle(workerCtx, d.Body))
			}
		}
	}()

	w.logger.Info().Msg("activity worker started")
	return nil
}

func (w *ActivityPersistWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

// handle decodes and stores one delivery body.
func (w *ActivityPersistWorker) handle(ctx context.Context, body []byte) error {
	var activity model.Activity
	if err := json.Unmarshal(body, &activity); err != nil {
		return fmt.Errorf("%w: %v", errMalformedActivity, err)
	}
	if activity.ActorID == 0 || activity.Action == "" {
		return fmt.Errorf("%w: missing actor or action", errMalformedActivity)
	}
	activity.ID = 0
	return w.repo.Create(ctx, &activity)
}

// ack settles the delivery. Malformed payloads are dropped; storage
// failures are requeued once, then dropped on redelivery.
func (w *ActivityPersistWorker) ack(d amqp.Delivery, err error) {
	switch {
	case err == nil:
		metrics.ActivitiesPersisted.WithLabelValues("stored").Inc()
		_ = d.Ack(false)
	case errors.Is(err, errMalformedActivity) || d.Redelivered:
		metrics.ActivitiesPersisted.WithLabelValues("dropped").Inc()
		w.logger.Error().Err(err).Bool("redelivered", d.Redelivered).Msg("drop activity")
		_ = d.Nack(false, false)
	default:
		metrics.ActivitiesPersisted.WithLabelValues("requeued").Inc()
		w.logger.Warn().Err(err).Msg("persist activity failed, requeue")
		_ = d.Nack(false, true)
	}
}
