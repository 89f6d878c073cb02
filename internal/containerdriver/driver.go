// Package containerdriver runs a job's container through a full
// pull/create/start/wait/logs/remove lifecycle against a Docker- or
// Podman-compatible engine.
package containerdriver

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	"github.com/lordgreg/taskcrafter/internal/logging"
	"github.com/lordgreg/taskcrafter/internal/model"
	"github.com/lordgreg/taskcrafter/internal/taskerrors"
)

// Driver dials a single container engine socket and runs jobs against it.
type Driver struct {
	engineURL string
}

func New(engineURL string) *Driver {
	return &Driver{engineURL: engineURL}
}

// Run pulls the job's image if absent, creates and starts a container with
// the job's command/env/volumes, waits for it to exit, collects its logs,
// and removes it unconditionally before returning.
func (d *Driver) Run(ctx context.Context, job *model.Job, env map[string]string) (exitCode int, logs string, err error) {
	cli, err := client.NewClientWithOpts(client.WithHost(d.engineURL), client.WithAPIVersionNegotiation())
	if err != nil {
		return 0, "", fmt.Errorf("%w: client init: %v", taskerrors.ErrContainer, err)
	}
	defer cli.Close()

	log := logging.Container().With().Str("job", job.ID).Str("image", job.Container.Image).Logger()

	if err := d.pullIfAbsent(ctx, cli, job.Container.Image); err != nil {
		return 0, "", fmt.Errorf("%w: pull: %v", taskerrors.ErrContainer, err)
	}

	envList := make([]string, 0, len(job.Container.Env)+len(env))
	for k, v := range job.Container.Env {
		envList = append(envList, k+"="+v)
	}
	for k, v := range env {
		envList = append(envList, k+"="+v)
	}

	mounts, err := parseVolumes(job.Container.Volumes)
	if err != nil {
		return 0, "", fmt.Errorf("%w: volumes: %v", taskerrors.ErrContainer, err)
	}

	exposedPorts, portBindings, err := nat.ParsePortSpecs(job.Container.Ports)
	if err != nil {
		return 0, "", fmt.Errorf("%w: ports: %v", taskerrors.ErrContainer, err)
	}

	cfg := &container.Config{
		Image:        job.Container.Image,
		Cmd:          job.Container.Command,
		Env:          envList,
		User:         job.Container.User,
		ExposedPorts: exposedPorts,
		Labels: map[string]string{
			"app": "taskcrafter",
			"job": job.ID,
		},
	}
	hostCfg := &container.HostConfig{
		Mounts:       mounts,
		PortBindings: portBindings,
		Privileged:   job.Container.Privileged,
	}

	log.Debug().Msg("creating container")
	resp, err := cli.ContainerCreate(ctx, cfg, hostCfg, nil, nil, "")
	if err != nil {
		return 0, "", fmt.Errorf("%w: create: %v", taskerrors.ErrContainer, err)
	}
	containerID := resp.ID

	defer func() {
		removeCtx := context.Background()
		if rmErr := cli.ContainerRemove(removeCtx, containerID, types.ContainerRemoveOptions{Force: true}); rmErr != nil {
			log.Warn().Err(rmErr).Msg("failed to remove container")
		}
	}()

	if err := cli.ContainerStart(ctx, containerID, types.ContainerStartOptions{}); err != nil {
		return 0, "", fmt.Errorf("%w: start: %v", taskerrors.ErrContainerExec, err)
	}

	statusCh, errCh := cli.ContainerWait(ctx, containerID, container.WaitConditionNotRunning)
	select {
	case werr := <-errCh:
		if werr != nil {
			return 0, "", fmt.Errorf("%w: wait: %v", taskerrors.ErrContainerExec, werr)
		}
	case status := <-statusCh:
		exitCode = int(status.StatusCode)
	}

	out, err := cli.ContainerLogs(ctx, containerID, types.ContainerLogsOptions{ShowStdout: true, ShowStderr: true})
	if err != nil {
		return exitCode, "", fmt.Errorf("%w: logs: %v", taskerrors.ErrContainerExec, err)
	}
	defer out.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, out); err != nil {
		return exitCode, "", fmt.Errorf("%w: reading logs: %v", taskerrors.ErrContainerExec, err)
	}

	if exitCode != 0 {
		return exitCode, buf.String(), fmt.Errorf("%w: container exited with code %d", taskerrors.ErrContainerExec, exitCode)
	}
	return exitCode, buf.String(), nil
}

// parseVolumes reads "host:container[:ro]" bind specs, the same shape the
// reference's commented-out volumes argument assumed.
func parseVolumes(volumes []string) ([]mount.Mount, error) {
	mounts := make([]mount.Mount, 0, len(volumes))
	for _, v := range volumes {
		parts := strings.Split(v, ":")
		if len(parts) < 2 {
			return nil, fmt.Errorf("invalid volume spec %q, want host:container[:ro]", v)
		}
		readOnly := len(parts) == 3 && parts[2] == "ro"
		mounts = append(mounts, mount.Mount{
			Type:     mount.TypeBind,
			Source:   parts[0],
			Target:   parts[1],
			ReadOnly: readOnly,
		})
	}
	return mounts, nil
}

func (d *Driver) pullIfAbsent(ctx context.Context, cli *client.Client, image string) error {
	if _, _, err := cli.ImageInspectWithRaw(ctx, image); err == nil {
		return nil
	}
	reader, err := cli.ImagePull(ctx, image, types.ImagePullOptions{})
	if err != nil {
		return err
	}
	defer reader.Close()
	_, err = io.Copy(io.Discard, reader)
	return err
}
