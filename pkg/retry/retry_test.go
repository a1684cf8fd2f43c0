package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSleep записывает запрошенные задержки, не ожидая реально
func fakeSleep(delays *[]time.Duration) func(ctx context.Context, d time.Duration) error {
	return func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
}

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	var delays []time.Duration
	calls := 0

	err := Do(context.Background(), func(_ context.Context) error {
		calls++
		return nil
	}, WithSleep(fakeSleep(&delays)))

	require.NoError(t, err)
	assert.Equal(t, 1, calls, "Успех с первой попытки не должен порождать повторов")
	assert.Empty(t, delays, "Ожиданий быть не должно")
}

func TestDo_FailTwiceThenSucceed(t *testing.T) {
	var delays []time.Duration
	calls := 0

	err := Do(context.Background(), func(_ context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("upstream timeout")
		}
		return nil
	},
		WithAttempts(3),
		WithBaseDelay(time.Second),
		WithSleep(fakeSleep(&delays)),
	)

	require.NoError(t, err, "Третья попытка успешна, ошибка не должна всплывать")
	assert.Equal(t, 3, calls)
	// Расписание бэкоффа: base, base*2
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, delays)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	var delays []time.Duration
	calls := 0
	upstreamErr := errors.New("persistent failure")

	err := Do(context.Background(), func(_ context.Context) error {
		calls++
		return upstreamErr
	},
		WithAttempts(3),
		WithBaseDelay(100*time.Millisecond),
		WithSleep(fakeSleep(&delays)),
	)

	require.Error(t, err)
	assert.Equal(t, upstreamErr, err, "Наружу уходит последняя ошибка операции")
	assert.Equal(t, 3, calls, "Ровно Attempts вызовов, не больше")
	// После последней попытки ожидания нет
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, delays)
}

func TestDo_ContextCanceledDuringSleep(t *testing.T) {
	calls := 0

	err := Do(context.Background(), func(_ context.Context) error {
		calls++
		return errors.New("transient")
	},
		WithAttempts(3),
		WithSleep(func(_ context.Context, _ time.Duration) error {
			return context.Canceled
		}),
	)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled, "Отмена во время ожидания прерывает цикл ошибкой контекста")
	assert.Equal(t, 1, calls, "После отмены повторов быть не должно")
}

func TestDo_AttemptsFloor(t *testing.T) {
	calls := 0

	err := Do(context.Background(), func(_ context.Context) error {
		calls++
		return errors.New("always fails")
	}, WithAttempts(0))

	require.Error(t, err)
	assert.Equal(t, 1, calls, "Attempts < 1 приводится к одной попытке")
}
