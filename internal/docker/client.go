package docker

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/docker/client"
	"github.com/rs/zerolog"
)

// Config holds the Docker engine connection settings.
type Config struct {
	Host      string
	TLSVerify bool
	CertPath  string
	Timeout   time.Duration

	// PullMissing pulls an image once when container creation reports it
	// as missing.
	PullMissing bool
}

// DefaultConfig connects through the environment (DOCKER_HOST and friends),
// falling back to the local unix socket.
func DefaultConfig() Config {
	return Config{
		Timeout:     30 * time.Second,
		PullMissing: true,
	}
}

// Client wraps the Docker API client
type Client struct {
	api     engineAPI
	log     zerolog.Logger
	timeout time.Duration
	pull    bool
}

// NewClient connects to the Docker engine and pings it.
func NewClient(ctx context.Context, cfg Config, log zerolog.Logger) (*Client, error) {
	opts := []client.Opt{
		client.FromEnv,
		client.WithAPIVersionNegotiation(),
	}
	if cfg.Host != "" {
		opts = append(opts, client.WithHost(cfg.Host))
	}

	if cfg.TLSVerify {
		opts = append(opts, client.WithTLSClientConfig(
			cfg.CertPath+"/ca.pem",
			cfg.CertPath+"/cert.pem",
			cfg.CertPath+"/key.pem",
		))
	}

	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating docker client: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	if _, err := cli.Ping(pingCtx); err != nil {
		cli.Close()
		return nil, fmt.Errorf("connecting to docker daemon at %s: %w", cli.DaemonHost(), err)
	}

	return newClient(cli, cfg, log), nil
}

func newClient(api engineAPI, cfg Config, log zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultConfig().Timeout
	}
	return &Client{
		api:     api,
		log:     log.With().Str("component", "docker").Logger(),
		timeout: timeout,
		pull:    cfg.PullMissing,
	}
}

// Close closes the connection
func (c *Client) Close() error {
	if c.api != nil {
		return c.api.Close()
	}
	return nil
}
