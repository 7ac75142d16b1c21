package services

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/jobboard/internal/cache"
	"github.com/yoockh/jobboard/internal/realtime"
)

// sideEffects runs the best-effort work that follows a committed write:
// cache invalidation and realtime notifications. Failures are only logged.
type sideEffects struct {
	cache cache.Cache
	pub   realtime.Publisher
	log   *logrus.Logger
}

func newSideEffects(c cache.Cache, pub realtime.Publisher, log *logrus.Logger) sideEffects {
	if log == nil {
		log = logrus.New()
	}
	return sideEffects{cache: c, pub: pub, log: log}
}

func (s sideEffects) invalidate(ctx context.Context, keys ...string) {
	if s.cache == nil || len(keys) == 0 {
		return
	}
	if err := s.cache.Del(ctx, keys...); err != nil {
		s.log.WithError(err).WithField("keys", keys).Warn("cache invalidation failed")
	}
}

func (s sideEffects) publish(ctx context.Context, e realtime.Event, channels ...string) {
	if s.pub == nil {
		return
	}
	for _, ch := range channels {
		if err := s.pub.Publish(ctx, ch, e); err != nil {
			s.log.WithError(err).WithField("channel", ch).Warn("realtime publish failed")
		}
	}
}
