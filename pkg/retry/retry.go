// Package retry реализует повтор одиночной операции с экспоненциальным бэкоффом.
// Расписание фиксированное: base, base*2, base*4... между попытками, без джиттера —
// точное число вызовов и суммарное ожидание являются частью контракта.
package retry

import (
	"context"
	"time"
)

// Operation — одна повторяемая операция
type Operation func(ctx context.Context) error

// Options настраивают стратегию повторов
type Options struct {
	// Attempts — максимум вызовов операции, включая первый. По умолчанию 3.
	Attempts int

	// BaseDelay — задержка перед второй попыткой; далее удваивается. По умолчанию 1s.
	BaseDelay time.Duration

	// Sleep подменяется в тестах; nil означает реальное ожидание с учетом ctx
	Sleep func(ctx context.Context, d time.Duration) error
}

// Option мутирует Options
type Option func(*Options)

// WithAttempts задает число попыток
func WithAttempts(n int) Option {
	return func(o *Options) { o.Attempts = n }
}

// WithBaseDelay задает стартовую задержку
func WithBaseDelay(d time.Duration) Option {
	return func(o *Options) { o.BaseDelay = d }
}

// WithSleep подменяет функцию ожидания (для тестов)
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(o *Options) { o.Sleep = fn }
}

// Do выполняет op до первого успеха. После неудачной попытки n (1-based) ждет
// BaseDelay*2^(n-1) и повторяет; исчерпав Attempts, возвращает последнюю ошибку.
// Отмена ctx во время ожидания прерывает цикл с ошибкой контекста.
func Do(ctx context.Context, op Operation, opts ...Option) error {
	options := Options{
		Attempts:  3,
		BaseDelay: time.Second,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.Attempts < 1 {
		options.Attempts = 1
	}
	sleep := options.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var lastErr error
	delay := options.BaseDelay
	for attempt := 1; attempt <= options.Attempts; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt == options.Attempts {
			break
		}
		if err := sleep(ctx, delay); err != nil {
			return err
		}
		delay *= 2
	}
	return lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
