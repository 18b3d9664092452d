package kafka

import (
	"VCoin/internal/model"
	"VCoin/internal/pkg/redis"
	"VCoin/internal/pkg/util"
	"VCoin/internal/service"
	"context"
	"errors"
	log "log/slog"
	"strings"
	"time"

	"github.com/IBM/sarama"
)

// 订阅的业务表
const (
	TablePosts        = "posts"
	TableLikes        = "likes"
	TablePostComments = "post_comments"
	TableShares       = "shares"
	TableReposts      = "reposts"
	TableUserFollows  = "user_follows"
)

// interactionTypes 针对帖子的互动行为，写入后需要刷新帖子质量分
var interactionTypes = map[string]model.ActivityType{
	TableLikes:        model.ActivityLike,
	TablePostComments: model.ActivityComment,
	TableShares:       model.ActivityShare,
	TableReposts:      model.ActivityRepost,
}

// ActivityHandler 将 canal 变更转为行为事件
type ActivityHandler struct {
	activitySvc service.ActivityService
	markDirty   func(ctx context.Context, postID uint64) error
}

func NewActivityHandler(activitySvc service.ActivityService) *ActivityHandler {
	return &ActivityHandler{
		activitySvc: activitySvc,
		markDirty:   redis.MarkPostDirty,
	}
}

func (s *ActivityHandler) Setup(sarama.ConsumerGroupSession) error {
	log.Info("activity consumer setup")
	return nil
}

func (s *ActivityHandler) Cleanup(sarama.ConsumerGroupSession) error {
	log.Info("activity consumer cleanup")
	return nil
}

func (s *ActivityHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	log.Info("topic-activity consume claim", "topic", claim.Topic(), "partition", claim.Partition())
	err := pullMessageBatch(session, claim, s.logic)
	if err != nil {
		log.Error("topic-activity process batch error", "err", err)
		return err
	}
	return nil
}

func (s *ActivityHandler) logic(ctx context.Context, msg *sarama.ConsumerMessage) error {
	canalMsg, err := ToCanalMessage(msg)
	if err != nil {
		// 格式错误的消息重试也无法成功，直接跳过
		if !errors.Is(err, errEmptyData) {
			log.WarnContext(ctx, "skip malformed canal message", "topic", msg.Topic, "offset", msg.Offset, "err", err)
		}
		return nil
	}
	return s.Handle(ctx, canalMsg)
}

// Handle 写入一条 canal 消息对应的全部行为事件
func (s *ActivityHandler) Handle(ctx context.Context, msg *CanalMessage) error {
	events := ToActivityEvents(msg)
	if len(events) == 0 {
		return nil
	}

	for _, event := range events {
		if err := s.activitySvc.RecordEvent(ctx, event); err != nil {
			if errors.Is(err, service.ErrParamInvalid) {
				log.WarnContext(ctx, "skip invalid activity row", "table", msg.Table, "user_id", event.UserID)
				continue
			}
			return err
		}

		if _, ok := interactionTypes[msg.Table]; ok && event.TargetID != 0 {
			if err := s.markDirty(ctx, event.TargetID); err != nil {
				log.ErrorContext(ctx, "mark post dirty error", "post_id", event.TargetID, "err", err)
			}
		}
	}

	log.InfoContext(ctx, "activity events recorded", "table", msg.Table, "count", len(events))
	return nil
}

// ToActivityEvents 只处理 INSERT，返回可幂等写入的事件（SourceKey 由表名和主键组成）
func ToActivityEvents(msg *CanalMessage) []*model.ActivityEvent {
	if msg == nil || msg.IsDDL || msg.Type != INSERT {
		return nil
	}

	events := make([]*model.ActivityEvent, 0, len(msg.Data))
	for _, row := range msg.Data {
		event := toActivityEvent(msg.Table, row)
		if event == nil {
			continue
		}
		key := sourceKey(msg.Table, msg.PKNames, row)
		event.SourceKey = &key
		events = append(events, event)
	}
	return events
}

func toActivityEvent(table string, row map[string]interface{}) *model.ActivityEvent {
	occurredAt, ok := util.ParseCanalTime(row["created_at"])
	if !ok {
		occurredAt = time.Now()
	}

	switch table {
	case TablePosts:
		return &model.ActivityEvent{
			UserID:     util.StrToUint64(row["user_id"]),
			Type:       postActivityType(row["media_type"]),
			TargetID:   util.StrToUint64(row["id"]),
			OccurredAt: occurredAt,
		}
	case TableUserFollows:
		return &model.ActivityEvent{
			UserID:     util.StrToUint64(row["follower_id"]),
			Type:       model.ActivityFollow,
			TargetID:   util.StrToUint64(row["following_id"]),
			OccurredAt: occurredAt,
		}
	default:
		activityType, ok := interactionTypes[table]
		if !ok {
			return nil
		}
		return &model.ActivityEvent{
			UserID:     util.StrToUint64(row["user_id"]),
			Type:       activityType,
			TargetID:   util.StrToUint64(row["post_id"]),
			OccurredAt: occurredAt,
		}
	}
}

func postActivityType(mediaType interface{}) model.ActivityType {
	s, _ := mediaType.(string)
	switch strings.ToLower(s) {
	case model.MediaTypeImage:
		return model.ActivityPostImage
	case model.MediaTypeVideo:
		return model.ActivityPostVideo
	default:
		return model.ActivityPostText
	}
}

func sourceKey(table string, pkNames []string, row map[string]interface{}) string {
	if len(pkNames) == 0 {
		pkNames = []string{"id"}
	}
	parts := make([]string, 0, len(pkNames)+1)
	parts = append(parts, table)
	for _, pk := range pkNames {
		parts = append(parts, util.StrToString(row[pk]))
	}
	return strings.Join(parts, ":")
}
