package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"imagegate-service/internal/model"
)

// MessageProducer is the slice of the Kafka producer the audit trail needs.
type MessageProducer interface {
	ProduceMessage(ctx context.Context, topic string, key, value []byte, headers map[string]string) error
}

// AuditService publishes admission decisions to Kafka. Publishing never
// affects the admission outcome; with no producer configured it is a no-op.
type AuditService struct {
	producer MessageProducer
	topic    string
	logger   *zap.Logger
}

func NewAuditService(producer MessageProducer, topic string, logger *zap.Logger) *AuditService {
	return &AuditService{
		producer: producer,
		topic:    topic,
		logger:   logger,
	}
}

// Publish sends one admission event, keyed by identity so per-client events
// stay ordered within a partition.
func (s *AuditService) Publish(ctx context.Context, event model.AdmissionEvent) error {
	if s == nil || s.producer == nil {
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal admission event: %w", err)
	}

	if err := s.producer.ProduceMessage(ctx, s.topic, []byte(event.Identity), payload, nil); err != nil {
		return fmt.Errorf("produce admission event: %w", err)
	}
	return nil
}

// PublishDecisionAsync records a decision without blocking the request path.
// Failures are logged and dropped.
func (s *AuditService) PublishDecisionAsync(clientID string, decision *model.Decision) {
	if s == nil || s.producer == nil {
		return
	}

	event := model.AdmissionEvent{
		EventID:   uuid.NewString(),
		Identity:  clientID,
		Tier:      "free_2k",
		Allowed:   decision.Allowed,
		Reason:    decision.Reason,
		UsedToday: decision.UsedToday,
		EventTime: time.Now().UTC(),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish admission event",
				zap.String("client_id", clientID),
				zap.Error(err))
		}
	}()
}
