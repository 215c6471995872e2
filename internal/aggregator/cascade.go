package aggregator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/FranksOps/seoscope/internal/metrics"
	"github.com/FranksOps/seoscope/internal/provider"
)

// outcome is the resolution of one family's cascade.
type outcome[T provider.Metrics] struct {
	metrics  T
	tag      provider.SourceTag
	provider string
	accepted bool
	errs     []*provider.Error
}

// cascade tries adapters strictly in declared order, one at a time, and
// accepts the first configured adapter that answers without error and with a
// usable payload. Everything else is recorded and skipped.
func cascade[T provider.Metrics](ctx context.Context, family provider.Family, domain string, adapters []provider.Adapter[T], timeout time.Duration, logger *slog.Logger) outcome[T] {
	var out outcome[T]

	for i, a := range adapters {
		name := a.Name()

		if !a.IsConfigured() {
			out.errs = append(out.errs, provider.NotConfigured(name))
			metrics.RecordProviderCall(name, string(family), string(provider.KindNotConfigured), 0)
			continue
		}

		start := time.Now()
		res := fetch(ctx, a, domain, timeout)
		elapsed := time.Since(start)

		if !res.OK() {
			out.errs = append(out.errs, res.Err)
			metrics.RecordProviderCall(name, string(family), string(res.Err.Kind), elapsed)
			logger.Warn("provider call failed", "provider", name, "family", family, "kind", res.Err.Kind, "err", res.Err.Err)
			continue
		}

		if !res.Metrics.Usable() {
			out.errs = append(out.errs, provider.Empty(name))
			metrics.RecordProviderCall(name, string(family), string(provider.KindEmptyResult), elapsed)
			logger.Debug("provider returned empty payload", "provider", name, "family", family)
			continue
		}

		metrics.RecordProviderCall(name, string(family), "ok", elapsed)
		logger.Debug("cascade accepted", "provider", name, "family", family, "position", i)

		out.metrics = res.Metrics
		out.tag = provider.TagForPosition(i)
		out.provider = name
		out.accepted = true
		return out
	}

	return out
}

// fetch bounds one adapter call by timeout. An adapter that ignores its
// context is abandoned when the timeout fires and reported as a timeout.
func fetch[T provider.Metrics](ctx context.Context, a provider.Adapter[T], domain string, timeout time.Duration) provider.Result[T] {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	done := make(chan provider.Result[T], 1)
	go func() {
		done <- a.Fetch(ctx, domain)
	}()

	select {
	case res := <-done:
		if res.Err != nil && res.Err.Provider == "" {
			res.Err.Provider = a.Name()
		}
		return res
	case <-ctx.Done():
		return provider.Fail[T](provider.NewError(a.Name(), provider.KindTimeout, fmt.Errorf("call abandoned: %w", ctx.Err())))
	}
}

func formatErrors(family provider.Family, errs []*provider.Error) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, fmt.Sprintf("%s: %s", family, e.Error()))
	}
	return out
}
