// Package retry は、失敗しうる1つの操作を指数バックオフで再試行する小さなヘルパーなのだ。
// どのエラーを再試行するかは呼び出し側が Retryable で決めるので、エラー分類とは独立しているのだ。
package retry

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	// DefaultInitialDelay は最初の再試行までの待ち時間です。
	DefaultInitialDelay = 2000 * time.Millisecond
	// DefaultMultiplier は試行ごとに待ち時間へ掛ける倍率です。
	DefaultMultiplier = 2.0
	// TextMaxAttempts はテキスト/JSON 生成の最大試行回数です。
	TextMaxAttempts = 3
	// ImageMaxAttempts は画像生成の最大試行回数です。
	ImageMaxAttempts = 2
)

// Policy は再試行の予算とスケジュールを表すのだ。
type Policy struct {
	// MaxAttempts は初回を含めた試行回数の上限なのだ。1 以下なら再試行しないのだ。
	MaxAttempts  int
	InitialDelay time.Duration
	Multiplier   float64

	// Retryable が nil の場合はどのエラーも再試行しないのだ。
	Retryable func(error) bool

	// Timer はテストで待ち時間を差し替えるためのものなのだ。nil なら実時間で待つのだ。
	Timer backoff.Timer
	// Notify は再試行の直前に呼ばれるのだ。
	Notify func(err error, next time.Duration)
}

// TextPolicy はテキスト・JSON 用の既定ポリシーを返します。
func TextPolicy(retryable func(error) bool) Policy {
	return Policy{
		MaxAttempts:  TextMaxAttempts,
		InitialDelay: DefaultInitialDelay,
		Multiplier:   DefaultMultiplier,
		Retryable:    retryable,
	}
}

// ImagePolicy は画像生成用の既定ポリシーを返します。
func ImagePolicy(retryable func(error) bool) Policy {
	p := TextPolicy(retryable)
	p.MaxAttempts = ImageMaxAttempts
	return p
}

// Delay は k 回目の試行が失敗した後の待ち時間 (InitialDelay × Multiplier^(k-1)) を返すのだ。
func (p Policy) Delay(k int) time.Duration {
	d := float64(p.initialDelay())
	for i := 1; i < k; i++ {
		d *= p.multiplier()
	}
	return time.Duration(d)
}

func (p Policy) initialDelay() time.Duration {
	if p.InitialDelay <= 0 {
		return DefaultInitialDelay
	}
	return p.InitialDelay
}

func (p Policy) multiplier() float64 {
	if p.Multiplier <= 0 {
		return DefaultMultiplier
	}
	return p.Multiplier
}

func (p Policy) backOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(p.initialDelay()),
		backoff.WithMultiplier(p.multiplier()),
		backoff.WithRandomizationFactor(0),
		backoff.WithMaxInterval(time.Hour),
		backoff.WithMaxElapsedTime(0),
	)

	retries := p.MaxAttempts - 1
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(retries)), ctx)
}

// Do は op を実行し、Retryable なエラーの間だけ予算内で再試行するのだ。
// 予算を使い切った場合は最後のエラーをそのまま返すのだ。
func Do[T any](ctx context.Context, p Policy, op func(context.Context) (T, error)) (T, error) {
	attempt := 0
	operation := func() (T, error) {
		attempt++
		res, err := op(ctx)
		if err == nil {
			return res, nil
		}
		if p.Retryable == nil || !p.Retryable(err) {
			return res, backoff.Permanent(err)
		}
		return res, err
	}

	notify := func(err error, next time.Duration) {
		slog.Warn("Retryable error, backing off",
			"attempt", attempt,
			"max_attempts", p.MaxAttempts,
			"next_delay", next,
			"error", err)
		if p.Notify != nil {
			p.Notify(err, next)
		}
	}

	res, err := backoff.RetryNotifyWithTimerAndData[T](operation, p.backOff(ctx), notify, p.Timer)
	if err != nil {
		// op 自身が Permanent を返した場合も中身のエラーを返すのだ
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			err = perm.Err
		}
		return res, err
	}
	return res, nil
}

// Run は戻り値を持たない操作向けの Do なのだ。
func Run(ctx context.Context, p Policy, op func(context.Context) error) error {
	_, err := Do(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}
