package kafka

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
)

type fakeSession struct {
	ctx    context.Context
	mu     sync.Mutex
	marked []*sarama.ConsumerMessage
}

func (f *fakeSession) Claims() map[string][]int32 { return nil }

func (f *fakeSession) MemberID() string { return "test" }

func (f *fakeSession) GenerationID() int32 { return 1 }

func (f *fakeSession) MarkOffset(string, int32, int64, string) {}

func (f *fakeSession) Commit() {}

func (f *fakeSession) ResetOffset(string, int32, int64, string) {}

func (f *fakeSession) Context() context.Context { return f.ctx }

func (f *fakeSession) MarkMessage(msg *sarama.ConsumerMessage, _ string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marked = append(f.marked, msg)
}

func testMessages(n int) []*sarama.ConsumerMessage {
	msgs := make([]*sarama.ConsumerMessage, n)
	for i := range msgs {
		msgs[i] = &sarama.ConsumerMessage{Topic: "canal.likes", Offset: int64(i)}
	}
	return msgs
}

func TestProcessBatch_MarksLastMessage(t *testing.T) {
	session := &fakeSession{ctx: context.Background()}
	msgs := testMessages(3)

	var calls atomic.Int32
	processBatch(session, msgs, func(context.Context, *sarama.ConsumerMessage) error {
		calls.Add(1)
		return nil
	})

	assert.Equal(t, int32(3), calls.Load())
	if assert.Len(t, session.marked, 1) {
		assert.Equal(t, int64(2), session.marked[0].Offset)
	}
}

func TestProcessBatch_RetriesFailedMessage(t *testing.T) {
	session := &fakeSession{ctx: context.Background()}

	var calls atomic.Int32
	processBatch(session, testMessages(1), func(context.Context, *sarama.ConsumerMessage) error {
		if calls.Add(1) < 3 {
			return errors.New("db busy")
		}
		return nil
	})

	assert.Equal(t, int32(3), calls.Load())
	assert.Len(t, session.marked, 1)
}

func TestProcessBatch_CancelledSessionDoesNotMark(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	session := &fakeSession{ctx: ctx}

	processBatch(session, testMessages(2), func(context.Context, *sarama.ConsumerMessage) error {
		cancel()
		return errors.New("shutting down")
	})

	assert.Empty(t, session.marked)
}

func TestToCanalMessage_RejectsDDL(t *testing.T) {
	_, err := ToCanalMessage(&sarama.ConsumerMessage{Value: []byte(`{"table":"likes","isDdl":true,"type":"ALTER","data":[{"id":"1"}]}`)})
	assert.ErrorIs(t, err, errEmptyData)

	_, err = ToCanalMessage(&sarama.ConsumerMessage{Value: []byte(`{"table":"likes","type":"INSERT","data":[]}`)})
	assert.ErrorIs(t, err, errEmptyData)
}
