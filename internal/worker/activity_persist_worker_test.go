package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventhub/internal/metrics"
	"eventhub/internal/model"
)

type recordingWriter struct {
	stored []model.Activity
	err    error
}

func (w *recordingWriter) Create(_ context.Context, activity *model.Activity) error {
	if w.err != nil {
		return w.err
	}
	activity.ID = uint(len(w.stored) + 1)
	w.stored = append(w.stored, *activity)
	return nil
}

func TestHandleStoresActivity(t *testing.T) {
	repo := &recordingWriter{}
	w := NewActivityPersistWorker(nil, repo, "q", zerolog.Nop())

	eventID := uint(9)
	body, err := json.Marshal(model.Activity{
		ID:        77,
		ActorID:   3,
		Action:    model.ActionEventJoined,
		EventID:   &eventID,
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	})
	require.NoError(t, err)

	require.NoError(t, w.handle(context.Background(), body))
	require.Len(t, repo.stored, 1)
	got := repo.stored[0]
	assert.Equal(t, uint(1), got.ID, "publisher-side ids are discarded")
	assert.Equal(t, uint(3), got.ActorID)
	assert.Equal(t, model.ActionEventJoined, got.Action)
	require.NotNil(t, got.EventID)
	assert.Equal(t, uint(9), *got.EventID)
}

func TestHandleRejectsMalformedPayloads(t *testing.T) {
	w := NewActivityPersistWorker(nil, &recordingWriter{}, "q", zerolog.Nop())

	for name, body := range map[string][]byte{
		"not json":       []byte("{"),
		"missing actor":  []byte(`{"action":"event.created"}`),
		"missing action": []byte(`{"actor_id":4}`),
	} {
		t.Run(name, func(t *testing.T) {
			err := w.handle(context.Background(), body)
			assert.ErrorIs(t, err, errMalformedActivity)
		})
	}
}

func TestHandlePropagatesStorageErrors(t *testing.T) {
	storageErr := errors.New("db down")
	w := NewActivityPersistWorker(nil, &recordingWriter{err: storageErr}, "q", zerolog.Nop())

	err := w.handle(context.Background(), []byte(`{"actor_id":1,"action":"user.updated"}`))
	assert.ErrorIs(t, err, storageErr)
	assert.NotErrorIs(t, err, errMalformedActivity)
}

type settlement struct {
	tag     uint64
	ack     bool
	requeue bool
}

type recordingAcknowledger struct {
	settled []settlement
}

func (a *recordingAcknowledger) Ack(tag uint64, _ bool) error {
	a.settled = append(a.settled, settlement{tag: tag, ack: true})
	return nil
}

func (a *recordingAcknowledger) Nack(tag uint64, _ bool, requeue bool) error {
	a.settled = append(a.settled, settlement{tag: tag, requeue: requeue})
	return nil
}

func (a *recordingAcknowledger) Reject(tag uint64, requeue bool) error {
	a.settled = append(a.settled, settlement{tag: tag, requeue: requeue})
	return nil
}

func TestAckSettlesByOutcome(t *testing.T) {
	w := NewActivityPersistWorker(nil, &recordingWriter{}, "q", zerolog.Nop())
	storageErr := errors.New("db down")

	tests := map[string]struct {
		err         error
		redelivered bool
		want        settlement
		outcome     string
	}{
		"stored":                   {want: settlement{tag: 7, ack: true}, outcome: "stored"},
		"malformed is dropped":     {err: errMalformedActivity, want: settlement{tag: 7}, outcome: "dropped"},
		"storage error requeues":   {err: storageErr, want: settlement{tag: 7, requeue: true}, outcome: "requeued"},
		"redelivered is dropped":   {err: storageErr, redelivered: true, want: settlement{tag: 7}, outcome: "dropped"},
		"redelivered success acks": {redelivered: true, want: settlement{tag: 7, ack: true}, outcome: "stored"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			counter := metrics.ActivitiesPersisted.WithLabelValues(tt.outcome)
			before := testutil.ToFloat64(counter)

			acker := &recordingAcknowledger{}
			w.ack(amqp.Delivery{Acknowledger: acker, DeliveryTag: 7, Redelivered: tt.redelivered}, tt.err)

			require.Len(t, acker.settled, 1)
			assert.Equal(t, tt.want, acker.settled[0])
			assert.Equal(t, before+1, testutil.ToFloat64(counter))
		})
	}
}
