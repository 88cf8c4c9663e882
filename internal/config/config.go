// Package config holds the process configuration. A Config is built once
// in main and passed explicitly to every component that needs it.
package config

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strconv"
)

const (
	DefaultServerHost        = "127.0.0.1"
	DefaultServerPort        = 7000
	DefaultPeerHost          = "127.0.0.1"
	DefaultBasePort          = 7100
	DefaultReplicationFactor = 2
	DefaultChunkSize         = 8192
	DefaultDataDir           = "data"
	DefaultHeartbeatSeconds  = 5
)

type Config struct {
	ServerHost        string `json:"server_host"`
	ServerPort        int    `json:"server_port"`
	PeerHost          string `json:"peer_host"`
	BasePort          int    `json:"base_port"`
	ReplicationFactor int    `json:"replication_factor"`
	ChunkSize         int    `json:"chunk_size_bytes"`
	DataDir           string `json:"data_dir"`
	HeartbeatSeconds  int    `json:"heartbeat_interval_seconds"`
}

func Default() *Config {
	return &Config{
		ServerHost:        DefaultServerHost,
		ServerPort:        DefaultServerPort,
		PeerHost:          DefaultPeerHost,
		BasePort:          DefaultBasePort,
		ReplicationFactor: DefaultReplicationFactor,
		ChunkSize:         DefaultChunkSize,
		DataDir:           DefaultDataDir,
		HeartbeatSeconds:  DefaultHeartbeatSeconds,
	}
}

// Load reads a JSON config file over the defaults. A missing path yields
// the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.ReplicationFactor < 1 {
		return nil, fmt.Errorf("replication_factor must be >= 1, got %d", cfg.ReplicationFactor)
	}
	if cfg.ChunkSize < 1 {
		return nil, fmt.Errorf("chunk_size_bytes must be >= 1, got %d", cfg.ChunkSize)
	}
	return cfg, nil
}

func (c *Config) ServerAddr() string {
	return net.JoinHostPort(c.ServerHost, strconv.Itoa(c.ServerPort))
}
