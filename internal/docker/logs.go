// internal/docker/logs.go
package docker

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/pkg/stdcopy"
)

// ReadOutput returns everything the container wrote to stdout and stderr
// since it started. The daemon hands out the whole log on every call, so
// the result is cumulative.
func (c *Container) ReadOutput(ctx context.Context) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	options := container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
	}

	reader, err := c.api.ContainerLogs(ctx, c.id, options)
	if err != nil {
		return nil, fmt.Errorf("reading output of container %s: %w", c.ShortID(), c.wrap(err))
	}
	defer reader.Close()

	out, err := demux(reader)
	if err != nil {
		return nil, fmt.Errorf("reading output of container %s: %w", c.ShortID(), err)
	}
	return out, nil
}

// demux strips Docker's stream multiplexing headers, interleaving stdout and
// stderr frames in the order the daemon sent them.
func demux(r io.Reader) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := stdcopy.StdCopy(&buf, &buf, r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
