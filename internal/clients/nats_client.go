package clients

import (
	"fmt"
	"log"
	"time"

	"did-backend/internal/config"
	"did-backend/internal/metrics"

	"github.com/nats-io/nats.go"
)

// ConnectNATS dials the NATS server the event publisher fans out on.
// Returns nil without error when the NATS section is disabled; the
// publisher treats a nil connection as log-and-sink-only mode.
func ConnectNATS(cfg config.NATSConfig) (*nats.Conn, error) {
	if !cfg.Enabled {
		log.Printf("🔌 NATS disabled, registry events stay local")
		return nil, nil
	}

	connectTimeout := 10 * time.Second
	if cfg.Timeout > 0 {
		connectTimeout = time.Duration(cfg.Timeout) * time.Second
	}
	reconnectWait := 5 * time.Second
	if cfg.ReconnectWait > 0 {
		reconnectWait = time.Duration(cfg.ReconnectWait) * time.Second
	}
	maxReconnects := -1
	if cfg.MaxReconnects > 0 {
		maxReconnects = cfg.MaxReconnects
	}

	conn, err := nats.Connect(cfg.URL,
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Printf("⚠️ NATS disconnected: %v", err)
			metrics.NATSConnectionStatus.Set(0)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("🔌 NATS reconnected to %s", nc.ConnectedUrl())
			metrics.NATSConnectionStatus.Set(1)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	metrics.NATSConnectionStatus.Set(1)
	log.Printf("🔌 NATS connected: %s", cfg.URL)
	return conn, nil
}
