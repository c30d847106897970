package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all per-rank configuration for the ring-knn cluster.
type Config struct {
	Cluster ClusterConfig
	KNN     KNNConfig
	Paths   PathsConfig
	Admin   AdminConfig
}

// ClusterConfig describes this rank's position in the ring and how to
// reach its peers.
type ClusterConfig struct {
	Rank          int           // this process's rank, 0 <= Rank < WorldSize
	WorldSize     int           // P, the fixed ring size
	ListenAddr    string        // address this rank accepts its predecessor's connection on
	PeerAddrs     []string      // PeerAddrs[r] is rank r's listen address, for all r
	DialTimeout   time.Duration // max time to wait for the successor's listener to come up
	AcceptTimeout time.Duration // max time to wait for the predecessor to connect
	SendRatePerSec float64      // outbound frame rate limit, 0 disables limiting
	SendBurst     int
}

// KNNConfig holds the search parameters shared by every rank.
type KNNConfig struct {
	K int // number of neighbors to retain per query point
}

// PathsConfig holds the on-disk inputs and optional verification oracles.
type PathsConfig struct {
	DataFile             string
	LabelsFile            string
	ExpectedAccuracyFile string // optional
	ExpectedIndexesFile  string // optional
}

// AdminConfig configures the optional per-rank REST/gRPC admin surface.
type AdminConfig struct {
	Enabled         bool
	Host            string
	Port            int
	GRPCPort        int
	JWTSecret       string
	RateLimitPerSec float64
	RateLimitBurst  int
	ShutdownTimeout time.Duration
}

// Default returns default configuration for a single-rank (P=1) run.
func Default() *Config {
	return &Config{
		Cluster: ClusterConfig{
			Rank:          0,
			WorldSize:     1,
			ListenAddr:    "0.0.0.0:7001",
			DialTimeout:   30 * time.Second,
			AcceptTimeout: 30 * time.Second,
		},
		KNN: KNNConfig{
			K: 5,
		},
		Admin: AdminConfig{
			Enabled:         false,
			Host:            "0.0.0.0",
			Port:            8080,
			GRPCPort:        9090,
			RateLimitPerSec: 10,
			RateLimitBurst:  20,
			ShutdownTimeout: 10 * time.Second,
		},
	}
}

// LoadFromEnv loads configuration from environment variables, overlaying
// Default().
func LoadFromEnv() *Config {
	cfg := Default()

	if rank := os.Getenv("RINGKNN_RANK"); rank != "" {
		if r, err := strconv.Atoi(rank); err == nil {
			cfg.Cluster.Rank = r
		}
	}
	if world := os.Getenv("RINGKNN_WORLD_SIZE"); world != "" {
		if w, err := strconv.Atoi(world); err == nil {
			cfg.Cluster.WorldSize = w
		}
	}
	if listen := os.Getenv("RINGKNN_LISTEN_ADDR"); listen != "" {
		cfg.Cluster.ListenAddr = listen
	}
	if peers := os.Getenv("RINGKNN_PEERS"); peers != "" {
		cfg.Cluster.PeerAddrs = strings.Split(peers, ",")
	}
	if dial := os.Getenv("RINGKNN_DIAL_TIMEOUT"); dial != "" {
		if d, err := time.ParseDuration(dial); err == nil {
			cfg.Cluster.DialTimeout = d
		}
	}
	if rate := os.Getenv("RINGKNN_SEND_RATE"); rate != "" {
		if r, err := strconv.ParseFloat(rate, 64); err == nil {
			cfg.Cluster.SendRatePerSec = r
		}
	}

	if k := os.Getenv("RINGKNN_K"); k != "" {
		if kVal, err := strconv.Atoi(k); err == nil {
			cfg.KNN.K = kVal
		}
	}

	if dataFile := os.Getenv("RINGKNN_DATA_FILE"); dataFile != "" {
		cfg.Paths.DataFile = dataFile
	}
	if labelsFile := os.Getenv("RINGKNN_LABELS_FILE"); labelsFile != "" {
		cfg.Paths.LabelsFile = labelsFile
	}
	if expAcc := os.Getenv("RINGKNN_EXPECTED_ACCURACY_FILE"); expAcc != "" {
		cfg.Paths.ExpectedAccuracyFile = expAcc
	}
	if expIdx := os.Getenv("RINGKNN_EXPECTED_INDEXES_FILE"); expIdx != "" {
		cfg.Paths.ExpectedIndexesFile = expIdx
	}

	if adminEnabled := os.Getenv("RINGKNN_ADMIN_ENABLED"); adminEnabled == "true" {
		cfg.Admin.Enabled = true
	}
	if host := os.Getenv("RINGKNN_ADMIN_HOST"); host != "" {
		cfg.Admin.Host = host
	}
	if port := os.Getenv("RINGKNN_ADMIN_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Admin.Port = p
		}
	}
	if grpcPort := os.Getenv("RINGKNN_ADMIN_GRPC_PORT"); grpcPort != "" {
		if p, err := strconv.Atoi(grpcPort); err == nil {
			cfg.Admin.GRPCPort = p
		}
	}
	if secret := os.Getenv("RINGKNN_ADMIN_JWT_SECRET"); secret != "" {
		cfg.Admin.JWTSecret = secret
	}

	return cfg
}

// Validate checks if the configuration is self-consistent.
func (c *Config) Validate() error {
	if c.Cluster.WorldSize < 1 {
		return fmt.Errorf("invalid world size: %d (must be >= 1)", c.Cluster.WorldSize)
	}
	if c.Cluster.Rank < 0 || c.Cluster.Rank >= c.Cluster.WorldSize {
		return fmt.Errorf("invalid rank: %d (must be in [0, %d))", c.Cluster.Rank, c.Cluster.WorldSize)
	}
	if c.Cluster.WorldSize > 1 && len(c.Cluster.PeerAddrs) != c.Cluster.WorldSize {
		return fmt.Errorf("expected %d peer addresses, got %d", c.Cluster.WorldSize, len(c.Cluster.PeerAddrs))
	}

	if c.KNN.K < 1 {
		return fmt.Errorf("invalid k: %d (must be >= 1)", c.KNN.K)
	}

	if c.Paths.DataFile == "" {
		return fmt.Errorf("data file not specified")
	}
	if c.Paths.LabelsFile == "" {
		return fmt.Errorf("labels file not specified")
	}

	if c.Admin.Enabled {
		if c.Admin.Port < 1 || c.Admin.Port > 65535 {
			return fmt.Errorf("invalid admin port: %d (must be 1-65535)", c.Admin.Port)
		}
		if c.Admin.JWTSecret == "" {
			return fmt.Errorf("admin server enabled but no JWT secret configured")
		}
	}

	return nil
}

// Address returns the admin server's listen address (host:port).
func (c *AdminConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
