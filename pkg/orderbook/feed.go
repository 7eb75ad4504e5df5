package orderbook

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// FeedConfig configures the depth feed client.
type FeedConfig struct {
	URL              string
	HandshakeTimeout time.Duration
	PongWait         time.Duration
	PingInterval     time.Duration
	WriteWait        time.Duration
}

// DefaultFeedConfig returns a feed configuration with standard timeouts.
// The ping interval stays inside the pong wait so an idle healthy
// connection never times out.
func DefaultFeedConfig(url string) FeedConfig {
	return FeedConfig{
		URL:              url,
		HandshakeTimeout: 10 * time.Second,
		PongWait:         60 * time.Second,
		PingInterval:     54 * time.Second,
		WriteWait:        10 * time.Second,
	}
}

// Feed streams depth messages from a websocket endpoint.
type Feed struct {
	cfg FeedConfig
	log *logrus.Logger
}

// NewFeed returns a feed for cfg. A nil log falls back to a default logger.
func NewFeed(cfg FeedConfig, log *logrus.Logger) *Feed {
	if log == nil {
		log = logrus.New()
	}

	return &Feed{cfg: cfg, log: log}
}

// Run connects to the endpoint and dispatches every depth message to handle
// until the context is cancelled, the server closes the stream, or the
// connection fails. Handle runs on the read goroutine, so a slow handler
// backpressures the stream.
func (f *Feed) Run(ctx context.Context, handle func(Update)) error {
	dialer := &websocket.Dialer{HandshakeTimeout: f.cfg.HandshakeTimeout}

	conn, _, err := dialer.DialContext(ctx, f.cfg.URL, nil)
	if err != nil {
		return errors.Wrapf(err, "unable to dial %s", f.cfg.URL)
	}
	defer conn.Close()

	f.log.WithField("url", f.cfg.URL).Info("depth feed connected")

	if err := conn.SetReadDeadline(time.Now().Add(f.cfg.PongWait)); err != nil {
		return errors.Wrap(err, "unable to set read deadline")
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(f.cfg.PongWait))
	})

	done := make(chan struct{})
	defer close(done)

	go func() {
		ticker := time.NewTicker(f.cfg.PingInterval)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				deadline := time.Now().Add(f.cfg.WriteWait)
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
				_ = conn.Close()

				return
			case <-ticker.C:
				deadline := time.Now().Add(f.cfg.WriteWait)
				if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
					f.log.WithError(err).Warn("unable to ping depth feed")
					return
				}
			}
		}
	}()

	for {
		var update Update
		if err := conn.ReadJSON(&update); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				f.log.Info("depth feed closed by server")
				return nil
			}

			return errors.Wrap(err, "unable to read depth message")
		}

		if err := conn.SetReadDeadline(time.Now().Add(f.cfg.PongWait)); err != nil {
			return errors.Wrap(err, "unable to set read deadline")
		}

		if !update.Snapshot && len(update.Bids) == 0 && len(update.Asks) == 0 {
			f.log.Debug("skipping empty depth message")
			continue
		}

		handle(update)
	}
}
