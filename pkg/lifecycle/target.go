package lifecycle

import (
	"context"
	"strconv"
	"strings"

	"github.com/cuemby/shipwright/pkg/clustererr"
	"github.com/cuemby/shipwright/pkg/sshtarget"
	"github.com/cuemby/shipwright/pkg/tooladapter"
)

// ResolveTarget exposes resolveTarget to callers outside this package (the
// orchestrator's ssh/swarm/forall verbs all need a machine's connection
// point without re-deriving it).
func (e *Engine) ResolveTarget(ctx context.Context, realName string) (sshtarget.Target, error) {
	return e.resolveTarget(ctx, realName)
}

// Render exposes render to callers outside this package.
func (e *Engine) Render(target sshtarget.Target) []string {
	return e.render(target)
}

// resolveTarget asks the provisioner for realName's connection details and
// returns them as a Target (render applies SSHTemplate, spec §6's
// "-ssh TMPL"), defaulting the
// docker-machine boot2docker convention: user "docker", port 22, the
// driver's generated SSH key.
func (e *Engine) resolveTarget(ctx context.Context, realName string) (sshtarget.Target, error) {
	host, err := e.machineField(ctx, realName, "ip")
	if err != nil {
		return sshtarget.Target{}, err
	}
	identity, err := e.machineField(ctx, realName, "inspect", "-f", "{{.Driver.SSHKeyPath}}")
	if err != nil {
		return sshtarget.Target{}, err
	}
	user, err := e.machineField(ctx, realName, "inspect", "-f", "{{.Driver.SSHUser}}")
	if err != nil || user == "" || user == "<no value>" {
		user = "docker"
	}
	portStr, err := e.machineField(ctx, realName, "inspect", "-f", "{{.Driver.SSHPort}}")
	port := 22
	if err == nil {
		if p, convErr := strconv.Atoi(portStr); convErr == nil && p > 0 {
			port = p
		}
	}
	return sshtarget.Target{Host: host, User: user, Identity: identity, Port: port}, nil
}

func (e *Engine) machineField(ctx context.Context, realName string, args ...string) (string, error) {
	fullArgs := append(append([]string{}, args...), realName)
	res, err := e.Adapter.Run(ctx, tooladapter.ToolDockerMachine, fullArgs, nil)
	if err != nil {
		return "", clustererr.WrapAdapter(err, "docker-machine %s %s", strings.Join(args, " "), realName)
	}
	return strings.TrimSpace(res.Stdout), nil
}

// render wraps sshtarget.Render with the engine's configured template.
func (e *Engine) render(target sshtarget.Target) []string {
	return sshtarget.Render(e.SSHTemplate, target)
}
