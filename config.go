package consoleproxy

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Transport names accepted in Config.Transport.
const (
	TransportENet      = "enet"
	TransportWebSocket = "websocket"
)

const (
	defaultAddress        = "localhost"
	defaultPort           = 4447
	defaultDrainTimeout   = 3 * time.Second
	defaultIdleBackoffMin = 1 * time.Millisecond
	defaultIdleBackoffMax = 50 * time.Millisecond
)

// Config holds the configuration for a console proxy client.
type Config struct {
	// Address is the console host name or IP.
	// Fallback: CONSOLEPROXY_ADDRESS environment variable, then "localhost".
	Address string

	// Port is the console port.
	// Fallback: CONSOLEPROXY_PORT environment variable, then 4447.
	Port int

	// Transport selects "enet" (default) or "websocket".
	// Fallback: CONSOLEPROXY_TRANSPORT environment variable.
	Transport string

	// URL is the WebSocket bridge URL, required for the websocket transport.
	// Fallback: CONSOLEPROXY_URL environment variable.
	URL string

	// ChannelID is the channel commands are sent on. The console uses 0.
	ChannelID uint8

	// DrainTimeout bounds the graceful disconnect handshake.
	DrainTimeout time.Duration

	// IdleBackoffMin and IdleBackoffMax bound the sleep between idle polls in Run.
	IdleBackoffMin time.Duration
	IdleBackoffMax time.Duration
}

// resolveConfig fills empty fields from environment variables and defaults,
// and validates the result.
func resolveConfig(cfg Config) (Config, error) {
	if cfg.Address == "" {
		cfg.Address = os.Getenv("CONSOLEPROXY_ADDRESS")
	}
	if cfg.Port == 0 {
		if v := os.Getenv("CONSOLEPROXY_PORT"); v != "" {
			port, err := strconv.Atoi(v)
			if err != nil {
				return cfg, fmt.Errorf("invalid CONSOLEPROXY_PORT %q: %w", v, err)
			}
			cfg.Port = port
		}
	}
	if cfg.Transport == "" {
		cfg.Transport = os.Getenv("CONSOLEPROXY_TRANSPORT")
	}
	if cfg.URL == "" {
		cfg.URL = os.Getenv("CONSOLEPROXY_URL")
	}

	if cfg.Address == "" {
		cfg.Address = defaultAddress
	}
	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.Transport == "" {
		cfg.Transport = TransportENet
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = defaultDrainTimeout
	}
	if cfg.IdleBackoffMin <= 0 {
		cfg.IdleBackoffMin = defaultIdleBackoffMin
	}
	if cfg.IdleBackoffMax < cfg.IdleBackoffMin {
		cfg.IdleBackoffMax = defaultIdleBackoffMax
		if cfg.IdleBackoffMax < cfg.IdleBackoffMin {
			cfg.IdleBackoffMax = cfg.IdleBackoffMin
		}
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return cfg, fmt.Errorf("port %d out of range", cfg.Port)
	}
	switch cfg.Transport {
	case TransportENet:
	case TransportWebSocket:
		if cfg.URL == "" {
			return cfg, fmt.Errorf("URL is required for the websocket transport (set in Config or CONSOLEPROXY_URL env)")
		}
	default:
		return cfg, fmt.Errorf("unknown transport %q", cfg.Transport)
	}

	return cfg, nil
}

func (cfg Config) newTransport() transport {
	if cfg.Transport == TransportWebSocket {
		return newWSTransport(cfg.URL)
	}
	return newENetTransport(cfg.Address, cfg.Port)
}
