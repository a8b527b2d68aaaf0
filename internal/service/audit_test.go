package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"imagegate-service/internal/model"
)

type fakeProducer struct {
	topic string
	key   []byte
	value []byte
	err   error
}

func (p *fakeProducer) ProduceMessage(_ context.Context, topic string, key, value []byte, _ map[string]string) error {
	if p.err != nil {
		return p.err
	}
	p.topic = topic
	p.key = key
	p.value = value
	return nil
}

func TestAuditPublish(t *testing.T) {
	producer := &fakeProducer{}
	svc := NewAuditService(producer, "admission-events", zap.NewNop())

	event := model.AdmissionEvent{
		EventID:   "e-1",
		Identity:  "1.2.3.4",
		Tier:      "free_2k",
		Allowed:   false,
		Reason:    model.ReasonQuotaExceeded,
		UsedToday: 4,
		EventTime: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, svc.Publish(context.Background(), event))

	assert.Equal(t, "admission-events", producer.topic)
	assert.Equal(t, []byte("1.2.3.4"), producer.key)

	var got model.AdmissionEvent
	require.NoError(t, json.Unmarshal(producer.value, &got))
	assert.Equal(t, event, got)
}

func TestAuditPublishProducerError(t *testing.T) {
	producer := &fakeProducer{err: errors.New("broker down")}
	svc := NewAuditService(producer, "admission-events", zap.NewNop())

	err := svc.Publish(context.Background(), model.AdmissionEvent{Identity: "1.2.3.4"})
	assert.Error(t, err)
}

func TestAuditDisabledIsNoop(t *testing.T) {
	svc := NewAuditService(nil, "admission-events", zap.NewNop())

	assert.NoError(t, svc.Publish(context.Background(), model.AdmissionEvent{}))
	// must not panic
	svc.PublishDecisionAsync("1.2.3.4", &model.Decision{Allowed: true})

	var nilSvc *AuditService
	nilSvc.PublishDecisionAsync("1.2.3.4", &model.Decision{Allowed: true})
}
