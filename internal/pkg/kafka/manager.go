package kafka

import (
	"VCoin/internal/api/config"
	"VCoin/internal/service"
	"context"
	"errors"
	log "log/slog"
	"time"

	"github.com/IBM/sarama"
)

// rejoinBackoff Consume 异常返回后重新加入消费组前的等待
const rejoinBackoff = time.Second

// ConsumerManager 行为事件消费组
type ConsumerManager struct {
	groupID string
	topics  []string
	group   sarama.ConsumerGroup
	handler sarama.ConsumerGroupHandler
}

func NewConsumerManager(cfg *config.Config, activitySvc service.ActivityService) (*ConsumerManager, error) {
	group, err := sarama.NewConsumerGroup(cfg.Kafka.Brokers, cfg.Kafka.ActivityConsumer.GroupID, newSaramaConfig(cfg.Kafka))
	if err != nil {
		return nil, err
	}

	return &ConsumerManager{
		groupID: cfg.Kafka.ActivityConsumer.GroupID,
		topics:  cfg.Kafka.ActivityConsumer.Topics,
		group:   group,
		handler: NewActivityHandler(activitySvc),
	}, nil
}

// Start 阻塞消费直到 ctx 结束，rebalance 后自动重新加入
func (m *ConsumerManager) Start(ctx context.Context) error {
	go func() {
		for err := range m.group.Errors() {
			log.Error("Activity consumer error", "group", m.groupID, "err", err)
		}
	}()

	log.Info("Activity consumer started", "group", m.groupID, "topics", m.topics)
	for ctx.Err() == nil {
		err := m.group.Consume(ctx, m.topics, m.handler)
		if err == nil {
			continue
		}
		if errors.Is(err, sarama.ErrClosedConsumerGroup) {
			return nil
		}
		log.Error("Error from consumer", "group", m.groupID, "err", err)
		select {
		case <-ctx.Done():
		case <-time.After(rejoinBackoff):
		}
	}

	log.Info("Kafka Manager shutting down...")
	return m.group.Close()
}
