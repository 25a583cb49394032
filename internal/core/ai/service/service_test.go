package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"nutrition-tracker/internal/core/ai/provider"
	"nutrition-tracker/internal/core/cache"
	"nutrition-tracker/internal/infrastructure/config"
	"nutrition-tracker/internal/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestComplete_NotConfiguredFailsBeforeCall(t *testing.T) {
	p := testhelpers.NewUnconfiguredProvider()
	svc, err := NewService(config.Default(), p, nil)
	require.NoError(t, err)

	_, err = svc.Complete(context.Background(), &provider.Request{Task: "chat"})
	assert.ErrorIs(t, err, provider.ErrNotConfigured)

	_, err = svc.Transcribe(context.Background(), []byte("x"), "audio.m4a")
	assert.ErrorIs(t, err, provider.ErrNotConfigured)

	p.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
	p.AssertNotCalled(t, "Transcribe", mock.Anything, mock.Anything)
}

func TestComplete_CachesCacheableRequests(t *testing.T) {
	p := testhelpers.NewMockProvider()
	p.On("Generate", mock.Anything, testhelpers.Task("food-search")).
		Return(testhelpers.Reply(`{"results":[]}`), nil).Once()

	store := cache.NewManager(cache.Options{Name: "ai", MaxSize: 10, TTL: time.Minute})
	defer store.Close()

	svc, err := NewService(config.Default(), p, store)
	require.NoError(t, err)

	req := &provider.Request{Task: "food-search", Model: "m", Cacheable: true,
		Messages: []provider.Message{{Role: "user", Content: "Search for: apple"}}}

	first, err := svc.Complete(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, first.CacheHit)

	second, err := svc.Complete(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Equal(t, first.Content, second.Content)

	p.AssertNumberOfCalls(t, "Generate", 1)
}

func TestComplete_NonCacheableAlwaysCalls(t *testing.T) {
	p := testhelpers.NewMockProvider()
	p.On("Generate", mock.Anything, mock.Anything).Return(testhelpers.Reply("hello"), nil)

	store := cache.NewManager(cache.Options{Name: "ai", MaxSize: 10, TTL: time.Minute})
	defer store.Close()
	svc, _ := NewService(config.Default(), p, store)

	req := &provider.Request{Task: "chat", Messages: []provider.Message{{Role: "user", Content: "hi"}}}
	_, _ = svc.Complete(context.Background(), req)
	_, _ = svc.Complete(context.Background(), req)

	p.AssertNumberOfCalls(t, "Generate", 2)
}

func TestComplete_PropagatesUpstreamError(t *testing.T) {
	p := testhelpers.NewMockProvider()
	upstream := &provider.UpstreamError{StatusCode: 401, Message: "invalid api key"}
	p.On("Generate", mock.Anything, mock.Anything).Return(nil, upstream)

	svc, _ := NewService(config.Default(), p, nil)
	_, err := svc.Complete(context.Background(), &provider.Request{Task: "chat"})

	var got *provider.UpstreamError
	require.True(t, errors.As(err, &got))
	assert.Equal(t, 401, got.StatusCode)
}

func TestGenerateImage_UsesConfiguredModel(t *testing.T) {
	p := testhelpers.NewMockProvider()
	p.On("GenerateImage", mock.Anything, mock.MatchedBy(func(r *provider.ImageRequest) bool {
		return r.Model == "dall-e-3" && r.Size == "1024x1024"
	})).Return("https://img.example/x.png", nil)

	svc, _ := NewService(config.Default(), p, nil)
	url, err := svc.GenerateImage(context.Background(), "oatmeal")
	require.NoError(t, err)
	assert.Equal(t, "https://img.example/x.png", url)
}
