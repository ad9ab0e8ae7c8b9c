package redis

import (
	"context"
	"errors"
	"net"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// OpObserver receives one call per Redis command or pipeline.
type OpObserver interface {
	ObserveRedisOp(operation string, ok bool, duration time.Duration)
	ObserveRedisDialError()
}

// MetricsHook implements goredis.Hook and reports every operation to an OpObserver.
// A goredis.Nil reply counts as success: a missing token is not a failure.
type MetricsHook struct {
	observer OpObserver
}

var _ goredis.Hook = (*MetricsHook)(nil)

func NewMetricsHook(observer OpObserver) *MetricsHook {
	return &MetricsHook{observer: observer}
}

func (h *MetricsHook) DialHook(next goredis.DialHook) goredis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := next(ctx, network, addr)
		if err != nil {
			h.observer.ObserveRedisDialError()
		}
		return conn, err
	}
}

func (h *MetricsHook) ProcessHook(next goredis.ProcessHook) goredis.ProcessHook {
	return func(ctx context.Context, cmd goredis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		h.observer.ObserveRedisOp(cmd.Name(), err == nil || errors.Is(err, goredis.Nil), time.Since(start))
		return err
	}
}

// ProcessPipelineHook reports a pipeline as a single "pipeline" operation.
func (h *MetricsHook) ProcessPipelineHook(next goredis.ProcessPipelineHook) goredis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []goredis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		h.observer.ObserveRedisOp("pipeline", err == nil, time.Since(start))
		return err
	}
}
