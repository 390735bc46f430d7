package events_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/internal/events"
	"fintrack/internal/events/event_mocks"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestBreakerPublisher_OpensAfterMaxFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	next := event_mocks.NewMockPublisher(ctrl)
	breaker := events.NewBreakerPublisher(next, events.BreakerConfig{MaxFailures: 2, ResetTimeout: time.Hour, HalfOpenMaxSucc: 1})
	event := events.New(events.TransactionCreated, uuid.New(), uuid.New(), nil)

	next.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(errors.New("broker down")).Times(2)

	assert.Error(t, breaker.Publish(context.Background(), event))
	assert.Equal(t, events.StateClosed, breaker.State())
	assert.Error(t, breaker.Publish(context.Background(), event))
	assert.Equal(t, events.StateOpen, breaker.State())

	// the broker is not called again while open
	assert.ErrorIs(t, breaker.Publish(context.Background(), event), events.ErrCircuitOpen)
}

func TestBreakerPublisher_HalfOpenRecovers(t *testing.T) {
	ctrl := gomock.NewController(t)
	next := event_mocks.NewMockPublisher(ctrl)
	breaker := events.NewBreakerPublisher(next, events.BreakerConfig{MaxFailures: 1, ResetTimeout: 10 * time.Millisecond, HalfOpenMaxSucc: 2})
	event := events.New(events.CategoryUpdated, uuid.New(), uuid.New(), nil)

	next.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(errors.New("broker down"))
	assert.Error(t, breaker.Publish(context.Background(), event))
	assert.Equal(t, events.StateOpen, breaker.State())

	time.Sleep(20 * time.Millisecond)

	next.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	assert.NoError(t, breaker.Publish(context.Background(), event))
	assert.Equal(t, events.StateHalfOpen, breaker.State())
	assert.NoError(t, breaker.Publish(context.Background(), event))
	assert.Equal(t, events.StateClosed, breaker.State())
}

func TestBreakerPublisher_HalfOpenFailureReopens(t *testing.T) {
	ctrl := gomock.NewController(t)
	next := event_mocks.NewMockPublisher(ctrl)
	breaker := events.NewBreakerPublisher(next, events.BreakerConfig{MaxFailures: 1, ResetTimeout: 10 * time.Millisecond, HalfOpenMaxSucc: 2})
	event := events.New(events.CategoryDeleted, uuid.New(), uuid.New(), nil)

	next.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(errors.New("broker down")).Times(2)
	assert.Error(t, breaker.Publish(context.Background(), event))
	time.Sleep(20 * time.Millisecond)
	assert.Error(t, breaker.Publish(context.Background(), event))
	assert.Equal(t, events.StateOpen, breaker.State())
}

func TestBreakerPublisher_CloseDelegates(t *testing.T) {
	ctrl := gomock.NewController(t)
	next := event_mocks.NewMockPublisher(ctrl)
	next.EXPECT().Close().Return(nil)

	assert.NoError(t, events.NewBreakerPublisher(next, events.DefaultBreakerConfig()).Close())
	assert.Equal(t, "half_open", events.StateHalfOpen.String())
}
