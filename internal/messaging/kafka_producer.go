package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/nurlyy/contract_manager/internal/domain"
	"github.com/nurlyy/contract_manager/pkg/config"
	"github.com/nurlyy/contract_manager/pkg/logger"
	kafkawrap "github.com/nurlyy/contract_manager/pkg/messaging"
	"github.com/nurlyy/contract_manager/pkg/metrics"
)

// KafkaProducer публикует доменные события в Kafka
type KafkaProducer struct {
	producer *kafkawrap.KafkaProducer
	topics   config.KafkaTopics
	metrics  *metrics.Metrics
	logger   logger.Logger
}

// NewKafkaProducer создает новый экземпляр KafkaProducer.
// Метрики опциональны: при nil публикации не учитываются в счетчиках.
func NewKafkaProducer(producer *kafkawrap.KafkaProducer, topics config.KafkaTopics, metrics *metrics.Metrics, logger logger.Logger) *KafkaProducer {
	return &KafkaProducer{
		producer: producer,
		topics:   topics,
		metrics:  metrics,
		logger:   logger,
	}
}

// Close закрывает соединение с Kafka
func (p *KafkaProducer) Close() error {
	p.logger.Info("Closing Kafka producer")
	return p.producer.Close()
}

// PublishContractCreated публикует событие о создании контракта
func (p *KafkaProducer) PublishContractCreated(ctx context.Context, contract *domain.Contract) error {
	event := newContractEvent(contract, EventTypeContractCreated)
	return p.publishEvent(ctx, p.topics.ContractCreated, contractKey(contract.ID), EventTypeContractCreated, event)
}

// PublishContractUpdated публикует событие об обновлении контракта
func (p *KafkaProducer) PublishContractUpdated(ctx context.Context, contract *domain.Contract, updatedBy string, changes map[string]interface{}) error {
	event := newContractEvent(contract, EventTypeContractUpdated)
	event.UpdatedBy = updatedBy
	event.Changes = changes
	return p.publishEvent(ctx, p.topics.ContractUpdated, contractKey(contract.ID), EventTypeContractUpdated, event)
}

// PublishContractDeleted публикует событие об удалении контракта
func (p *KafkaProducer) PublishContractDeleted(ctx context.Context, contract *domain.Contract, deletedBy string) error {
	event := newContractEvent(contract, EventTypeContractDeleted)
	event.UpdatedBy = deletedBy
	return p.publishEvent(ctx, p.topics.ContractDeleted, contractKey(contract.ID), EventTypeContractDeleted, event)
}

// PublishContractStatusChanged публикует событие о смене статуса контракта
func (p *KafkaProducer) PublishContractStatusChanged(ctx context.Context, contract *domain.Contract, oldStatus domain.ContractStatus, updatedBy string) error {
	event := newContractEvent(contract, EventTypeContractStatusChanged)
	event.UpdatedBy = updatedBy
	event.Changes = map[string]interface{}{
		"status": map[string]string{
			"old": string(oldStatus),
			"new": string(contract.Status),
		},
	}
	return p.publishEvent(ctx, p.topics.ContractStatusChanged, contractKey(contract.ID), EventTypeContractStatusChanged, event)
}

// PublishContractAssigned публикует событие о назначении контракта менеджеру
func (p *KafkaProducer) PublishContractAssigned(ctx context.Context, contract *domain.Contract, assignerID string) error {
	event := newContractEvent(contract, EventTypeContractAssigned)
	event.UpdatedBy = assignerID
	return p.publishEvent(ctx, p.topics.ContractUpdated, contractKey(contract.ID), EventTypeContractAssigned, event)
}

// PublishContractExpiring публикует событие о приближении окончания срока контракта
func (p *KafkaProducer) PublishContractExpiring(ctx context.Context, contract *domain.Contract, daysLeft int) error {
	event := newContractEvent(contract, EventTypeContractExpiring)
	event.DaysLeft = daysLeft
	return p.publishEvent(ctx, p.topics.ContractExpiring, contractKey(contract.ID), EventTypeContractExpiring, event)
}

// PublishContractExpired публикует событие об истечении срока контракта
func (p *KafkaProducer) PublishContractExpired(ctx context.Context, contract *domain.Contract) error {
	event := newContractEvent(contract, EventTypeContractExpired)
	return p.publishEvent(ctx, p.topics.ContractStatusChanged, contractKey(contract.ID), EventTypeContractExpired, event)
}

// PublishCounterpartyCreated публикует событие о создании контрагента
func (p *KafkaProducer) PublishCounterpartyCreated(ctx context.Context, counterparty *domain.Counterparty) error {
	event := newCounterpartyEvent(counterparty, EventTypeCounterpartyCreated)
	return p.publishEvent(ctx, p.topics.Counterparties, counterparty.ID, EventTypeCounterpartyCreated, event)
}

// PublishCounterpartyUpdated публикует событие об обновлении контрагента
func (p *KafkaProducer) PublishCounterpartyUpdated(ctx context.Context, counterparty *domain.Counterparty, changes map[string]interface{}) error {
	event := newCounterpartyEvent(counterparty, EventTypeCounterpartyUpdated)
	event.Changes = changes
	return p.publishEvent(ctx, p.topics.Counterparties, counterparty.ID, EventTypeCounterpartyUpdated, event)
}

// PublishCounterpartyDeleted публикует событие об удалении контрагента
func (p *KafkaProducer) PublishCounterpartyDeleted(ctx context.Context, counterparty *domain.Counterparty) error {
	event := newCounterpartyEvent(counterparty, EventTypeCounterpartyDeleted)
	return p.publishEvent(ctx, p.topics.Counterparties, counterparty.ID, EventTypeCounterpartyDeleted, event)
}

// PublishNotification публикует событие уведомления
func (p *KafkaProducer) PublishNotification(ctx context.Context, notification *NotificationEvent) error {
	return p.publishEvent(ctx, p.topics.Notifications, notification.EntityID, EventTypeNotification, notification)
}

// Вспомогательный метод для публикации событий

func (p *KafkaProducer) publishEvent(ctx context.Context, topic, key, eventType string, event interface{}) error {
	value, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to marshal event", err, map[string]interface{}{
			"topic": topic,
			"key":   key,
		})
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.producer.Publish(ctx, topic, key, value); err != nil {
		return err
	}

	if p.metrics != nil {
		p.metrics.IncEventsPublished(eventType)
	}
	return nil
}

func contractKey(id int64) string {
	return strconv.FormatInt(id, 10)
}
