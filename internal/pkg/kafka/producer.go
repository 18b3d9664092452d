package kafka

import (
	"VCoin/internal/api/config"
	"VCoin/internal/api/dto"
	"context"
	log "log/slog"
	"strconv"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
)

// Publisher 将入账与机器人检测事件写入 Kafka
type Publisher struct {
	producer     sarama.SyncProducer
	creditTopic  string
	botFlagTopic string
}

func NewPublisher(cfg config.KafkaConfig) (*Publisher, error) {
	producer, err := sarama.NewSyncProducer(cfg.Brokers, newProducerConfig(cfg))
	if err != nil {
		return nil, err
	}
	return newPublisher(producer, cfg.Producer), nil
}

func newPublisher(producer sarama.SyncProducer, topics config.KafkaProducerTopics) *Publisher {
	return &Publisher{
		producer:     producer,
		creditTopic:  topics.CreditTopic,
		botFlagTopic: topics.BotFlagTopic,
	}
}

func (p *Publisher) PublishCredit(ctx context.Context, event *dto.CreditEvent) error {
	return p.send(ctx, p.creditTopic, event.UserID, event)
}

func (p *Publisher) PublishBotFlag(ctx context.Context, event *dto.BotFlagEvent) error {
	return p.send(ctx, p.botFlagTopic, event.UserID, event)
}

// send 以用户 ID 作为 key，保证同一用户的事件有序
func (p *Publisher) send(ctx context.Context, topic string, userID uint64, payload any) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(strconv.FormatUint(userID, 10)),
		Value: sarama.ByteEncoder(value),
	})
	if err != nil {
		log.ErrorContext(ctx, "kafka publish error", "topic", topic, "user_id", userID, "err", err)
		return err
	}

	log.DebugContext(ctx, "kafka message published", "topic", topic, "partition", partition, "offset", offset)
	return nil
}

func (p *Publisher) Close() error {
	return p.producer.Close()
}
