// Package config holds the settings of one logship run.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/rusenback/logship/internal/docker"
	"github.com/rusenback/logship/internal/model"
	"github.com/rusenback/logship/internal/sink"
)

// Flag names. The first seven are required.
const (
	FlagImage        = "docker-image"
	FlagCommand      = "bash-command"
	FlagGroup        = "aws-cloudwatch-group"
	FlagStream       = "aws-cloudwatch-stream"
	FlagAccessKeyID  = "aws-access-key-id"
	FlagSecretKey    = "aws-secret-access-key"
	FlagRegion       = "aws-region"
	FlagPollInterval = "poll-interval"
	FlagPull         = "pull"
	FlagDockerHost   = "docker-host"
	FlagLogLevel     = "log-level"
	FlagTUI          = "tui"
)

// Required lists the flags without defaults.
var Required = []string{
	FlagImage, FlagCommand, FlagGroup, FlagStream,
	FlagAccessKeyID, FlagSecretKey, FlagRegion,
}

// Config is everything a run needs to know.
type Config struct {
	Image   string
	Command string

	Group  string
	Stream string

	AccessKeyID     string
	SecretAccessKey string
	Region          string

	PollInterval time.Duration
	Pull         bool
	DockerHost   string
	LogLevel     string
	TUI          bool
}

// Default returns a Config with the optional settings filled in.
func Default() Config {
	return Config{
		Pull:     true,
		LogLevel: "info",
	}
}

// BindFlags registers the flags of c on fs.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.Image, FlagImage, c.Image, "Name of a Docker image")
	fs.StringVar(&c.Command, FlagCommand, c.Command, "Bash command (to run inside the Docker image)")
	fs.StringVar(&c.Group, FlagGroup, c.Group, "Name of an AWS CloudWatch group")
	fs.StringVar(&c.Stream, FlagStream, c.Stream, "Name of an AWS CloudWatch stream")
	fs.StringVar(&c.AccessKeyID, FlagAccessKeyID, c.AccessKeyID, "AWS access key ID")
	fs.StringVar(&c.SecretAccessKey, FlagSecretKey, c.SecretAccessKey, "AWS secret access key")
	fs.StringVar(&c.Region, FlagRegion, c.Region, "Name of an AWS region")

	fs.DurationVar(&c.PollInterval, FlagPollInterval, c.PollInterval, "Minimum time between two polls of the container (0 polls continuously)")
	fs.BoolVar(&c.Pull, FlagPull, c.Pull, "Pull the image if it is not present locally")
	fs.StringVar(&c.DockerHost, FlagDockerHost, c.DockerHost, "Docker daemon socket (defaults to DOCKER_HOST or the local socket)")
	fs.StringVar(&c.LogLevel, FlagLogLevel, c.LogLevel, "Log level: debug, info, warn or error")
	fs.BoolVar(&c.TUI, FlagTUI, c.TUI, "Show a live status view instead of plain log lines")
}

// Validate reports all missing or malformed settings at once.
func (c Config) Validate() error {
	values := map[string]string{
		FlagImage:       c.Image,
		FlagCommand:     c.Command,
		FlagGroup:       c.Group,
		FlagStream:      c.Stream,
		FlagAccessKeyID: c.AccessKeyID,
		FlagSecretKey:   c.SecretAccessKey,
		FlagRegion:      c.Region,
	}
	var missing []string
	for _, name := range Required {
		if strings.TrimSpace(values[name]) == "" {
			missing = append(missing, "--"+name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required flags: %s", strings.Join(missing, ", "))
	}
	if c.PollInterval < 0 {
		return fmt.Errorf("--%s must not be negative", FlagPollInterval)
	}
	return nil
}

// Target returns the log group and stream to ship to.
func (c Config) Target() model.SinkTarget {
	return model.SinkTarget{Group: c.Group, Stream: c.Stream}
}

// Sink returns the log sink settings.
func (c Config) Sink() sink.Config {
	return sink.Config{
		Region:          c.Region,
		AccessKeyID:     c.AccessKeyID,
		SecretAccessKey: c.SecretAccessKey,
	}
}

// Docker returns the Docker engine settings.
func (c Config) Docker() docker.Config {
	cfg := docker.DefaultConfig()
	cfg.Host = c.DockerHost
	cfg.PullMissing = c.Pull
	return cfg
}
