package kafka

import (
	"VCoin/internal/pkg/metrics"
	"context"
	"errors"
	log "log/slog"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
)

const (
	batchSize    = 32
	batchTimeout = 1 * time.Second
	minBackoff   = 100 * time.Millisecond
	maxBackoff   = 5 * time.Second
	// maxAttempts 超过后丢弃该消息，避免单条坏数据阻塞整个分区
	maxAttempts = 8
)

var errEmptyData = errors.New("canal data is empty")

type LogicFunc func(ctx context.Context, msg *sarama.ConsumerMessage) error

// pullMessageBatch 攒批拉取消息，满 batchSize 或超时后交给 processBatch
func pullMessageBatch(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim, logic LogicFunc) error {
	batch := make([]*sarama.ConsumerMessage, 0, batchSize)
	ticker := time.NewTicker(batchTimeout)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		processBatch(session, batch, logic)
		batch = make([]*sarama.ConsumerMessage, 0, batchSize)
	}

	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				flush()
				return nil
			}
			batch = append(batch, msg)
			if len(batch) >= batchSize {
				flush()
				ticker.Reset(batchTimeout)
			}
		case <-ticker.C:
			flush()
		case <-session.Context().Done():
			return nil
		}
	}
}

// processBatch 并发处理一批消息，整批结束后只提交最后一条的 offset。
// 会话结束时不提交，未完成的消息在 rebalance 后重新投递
func processBatch(session sarama.ConsumerGroupSession, messages []*sarama.ConsumerMessage, logic LogicFunc) {
	ctx := session.Context()
	var wg sync.WaitGroup
	for _, msg := range messages {
		wg.Add(1)
		go func(m *sarama.ConsumerMessage) {
			defer wg.Done()
			handleWithRetry(ctx, m, logic)
		}(msg)
	}
	wg.Wait()

	if ctx.Err() != nil || len(messages) == 0 {
		return
	}
	session.MarkMessage(messages[len(messages)-1], "")
	// 自动提交已关闭
	session.Commit()
}

func handleWithRetry(ctx context.Context, m *sarama.ConsumerMessage, logic LogicFunc) {
	interval := minBackoff
	for attempt := 1; ; attempt++ {
		err := logic(ctx, m)
		if err == nil {
			metrics.ConsumedMessages.WithLabelValues(m.Topic, "ok").Inc()
			return
		}
		if attempt >= maxAttempts {
			metrics.ConsumedMessages.WithLabelValues(m.Topic, "dropped").Inc()
			log.ErrorContext(ctx, "drop message after retries",
				"topic", m.Topic, "partition", m.Partition, "offset", m.Offset,
				"attempts", attempt, "err", err)
			return
		}
		metrics.ConsumedMessages.WithLabelValues(m.Topic, "retry").Inc()
		log.WarnContext(ctx, "process message error",
			"topic", m.Topic, "partition", m.Partition, "offset", m.Offset,
			"attempt", attempt, "err", err)

		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
		interval = min(interval*2, maxBackoff)
	}
}

// ToCanalMessage 解析 canal 推送的行变更，DDL 与空数据返回错误
func ToCanalMessage(msg *sarama.ConsumerMessage) (*CanalMessage, error) {
	var canalMsg CanalMessage
	if err := json.Unmarshal(msg.Value, &canalMsg); err != nil {
		return nil, err
	}
	if canalMsg.IsDDL || len(canalMsg.Data) == 0 {
		return nil, errEmptyData
	}
	return &canalMsg, nil
}
