// Package heartbeat logs a periodic liveness line with a caller-supplied
// status.
package heartbeat

import (
	"context"
	"time"

	"boardcode-go/bus"
	"boardcode-go/x/logx"
)

// ConfigTopic accepts a Config to change the interval at runtime.
var ConfigTopic = bus.T("config", "heartbeat")

type Config struct {
	Interval time.Duration
}

const DefaultInterval = 10 * time.Second

type Service struct {
	Interval time.Duration
	// Status returns the words appended to each heartbeat line.
	Status func() []string
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection, cfgSub *bus.Subscription) {
	defer conn.Disconnect()

	iv := s.Interval
	if iv <= 0 {
		iv = DefaultInterval
	}
	tick := time.NewTicker(iv)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			logx.I("heartbeat", "stopping")
			return
		case <-tick.C:
			var parts []string
			if s.Status != nil {
				parts = s.Status()
			}
			logx.I("heartbeat", parts...)
		case msg := <-cfgSub.Channel():
			if c, ok := msg.Payload.(Config); ok && c.Interval > 0 {
				tick.Reset(c.Interval)
				logx.I("heartbeat", "interval", c.Interval.String())
			}
		}
	}
}

// Start runs the heartbeat until ctx is cancelled, then disconnects conn,
// which the service owns. The config topic is subscribed before Start
// returns.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) {
	go s.serviceLoop(ctx, conn, conn.Subscribe(ConfigTopic))
}
