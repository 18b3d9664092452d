package service

import (
	"VCoin/internal/api/dto"
	"context"
	"sync"
	"time"
)

type fakePublisher struct {
	mu      sync.Mutex
	credits []*dto.CreditEvent
	flags   []*dto.BotFlagEvent
	err     error
}

func (f *fakePublisher) PublishCredit(_ context.Context, event *dto.CreditEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.credits = append(f.credits, event)
	return f.err
}

func (f *fakePublisher) PublishBotFlag(_ context.Context, event *dto.BotFlagEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flags = append(f.flags, event)
	return f.err
}

type fakeCache struct {
	mu   sync.Mutex
	data map[string]string
	gets int
	sets int
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string]string)}
}

func (f *fakeCache) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	return f.data[key], nil
}

func (f *fakeCache) Set(_ context.Context, key string, value string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets++
	f.data[key] = value
	return nil
}
