// Package nats stores conversations, briefings and events in NATS JetStream.
package nats

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/capitalize-ai/briefing-platform/pkg/logger"
)

// Config holds NATS connection configuration.
type Config struct {
	URL  string
	Name string

	// TLS is enabled when CAFile is set. CertFile and KeyFile add a client
	// certificate.
	CAFile   string
	CertFile string
	KeyFile  string

	Token string

	// DrainTimeout bounds Close. Zero uses the NATS default.
	DrainTimeout time.Duration
}

// Client wraps a NATS connection and its JetStream context.
type Client struct {
	conn   *nats.Conn
	js     jetstream.JetStream
	logger *logger.Logger
}

// Connect dials NATS and verifies that JetStream is available. A deadline on
// ctx bounds the initial dial.
func Connect(ctx context.Context, cfg Config, log *logger.Logger) (*Client, error) {
	opts := cfg.options(log)
	if deadline, ok := ctx.Deadline(); ok {
		opts = append(opts, nats.Timeout(time.Until(deadline)))
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	if _, err := js.AccountInfo(ctx); err != nil {
		nc.Close()
		return nil, fmt.Errorf("JetStream unavailable: %w", err)
	}

	log.Info("NATS connected",
		zap.String("url", nc.ConnectedUrlRedacted()),
		zap.String("server_id", nc.ConnectedServerId()),
	)

	return &Client{
		conn:   nc,
		js:     js,
		logger: log,
	}, nil
}

func (cfg Config) options(log *logger.Logger) []nats.Option {
	name := cfg.Name
	if name == "" {
		name = "briefing-platform"
	}

	opts := []nats.Option{
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.ReconnectBufSize(8 * 1024 * 1024),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("NATS disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected", zap.String("url", nc.ConnectedUrlRedacted()))
		}),
		nats.ErrorHandler(func(_ *nats.Conn, sub *nats.Subscription, err error) {
			fields := []zap.Field{zap.Error(err)}
			if sub != nil {
				fields = append(fields, zap.String("subject", sub.Subject))
			}
			log.Error("NATS error", fields...)
		}),
	}

	if cfg.CAFile != "" {
		opts = append(opts, nats.RootCAs(cfg.CAFile))
		if cfg.CertFile != "" && cfg.KeyFile != "" {
			opts = append(opts, nats.ClientCert(cfg.CertFile, cfg.KeyFile))
		}
	}
	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}
	if cfg.DrainTimeout > 0 {
		opts = append(opts, nats.DrainTimeout(cfg.DrainTimeout))
	}

	return opts
}

// JetStream returns the JetStream context.
func (c *Client) JetStream() jetstream.JetStream {
	return c.js
}

// Ping round-trips to the server.
func (c *Client) Ping(ctx context.Context) error {
	if c.conn == nil {
		return fmt.Errorf("NATS not connected")
	}
	if !c.conn.IsConnected() {
		return fmt.Errorf("NATS not connected: %s", c.conn.Status())
	}
	return c.conn.FlushWithContext(ctx)
}

// IsConnected returns true if connected to NATS.
func (c *Client) IsConnected() bool {
	return c.conn != nil && c.conn.IsConnected()
}

// Close drains pending publishes and closes the connection.
func (c *Client) Close() {
	if c.conn == nil {
		return
	}
	if err := c.conn.Drain(); err != nil {
		c.logger.Warn("NATS drain failed", zap.Error(err))
		c.conn.Close()
	}
}
