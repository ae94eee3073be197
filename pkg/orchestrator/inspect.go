package orchestrator

import (
	"context"
	"path"
	"sort"
	"strings"

	"github.com/cuemby/shipwright/pkg/clustererr"
	"github.com/cuemby/shipwright/pkg/tooladapter"
	"github.com/cuemby/shipwright/pkg/types"
)

// MachineSummary is one row of the "ls" verb's output (spec §4.11).
type MachineSummary struct {
	Name    string
	Real    string
	Driver  string
	Master  bool
	State   types.MachineState
	Aliases []string
}

// Ls reports every selected machine's logical/real name, driver, master
// flag, and last-checkpointed state, without touching any external tool.
func (o *Orchestrator) Ls(patterns, restrict []string) []MachineSummary {
	machines := Select(o.Cluster, patterns, restrict)
	out := make([]MachineSummary, 0, len(machines))
	for _, m := range machines {
		real := o.Cluster.RealName(m.Name)
		state, err := o.Engine.CurrentState(real)
		if err != nil {
			state = types.StateAbsent
		}
		out = append(out, MachineSummary{
			Name: m.Name, Real: real, Driver: m.Driver, Master: m.Master,
			State: state, Aliases: m.Aliases,
		})
	}
	return out
}

// Env returns the discovery cache's flat KEY=VALUE bindings, for the "env"
// verb's shell-export output (spec §4.4).
func (o *Orchestrator) Env(ctx context.Context) (map[string]string, error) {
	return o.Engine.Discovery.Read()
}

// Container is one row returned by a machine's "docker ps" (spec §4.11's
// forall/search verbs).
type Container struct {
	Machine string
	ID      string
	Image   string
	Names   string
	Status  string
}

// Forall enumerates containers on every selected machine by running
// "docker ps --format" over ssh against each one, optionally filtering by a
// glob against the container name (the "search" verb reuses this with a
// non-empty namePattern; "forall" passes "" to list everything before
// forwarding a docker subcommand).
func (o *Orchestrator) Forall(ctx context.Context, patterns, restrict []string, namePattern string) ([]Container, error) {
	machines := Select(o.Cluster, patterns, restrict)
	var out []Container
	for _, m := range machines {
		real := o.Cluster.RealName(m.Name)
		target, err := o.Engine.ResolveTarget(ctx, real)
		if err != nil {
			return nil, err
		}
		args := append(o.Engine.Render(target), "docker", "ps", "--format", "{{.ID}}\t{{.Image}}\t{{.Names}}\t{{.Status}}")
		res, err := o.Engine.Adapter.Run(ctx, tooladapter.ToolSSH, args, nil)
		if err != nil {
			return nil, clustererr.WrapAdapter(err, "docker ps on %s", real)
		}
		for _, line := range strings.Split(strings.TrimSpace(res.Stdout), "\n") {
			if line == "" {
				continue
			}
			fields := strings.Split(line, "\t")
			if len(fields) != 4 {
				continue
			}
			if namePattern != "" {
				if ok, _ := path.Match(namePattern, fields[2]); !ok {
					continue
				}
			}
			out = append(out, Container{Machine: real, ID: fields[0], Image: fields[1], Names: fields[2], Status: fields[3]})
		}
	}
	return out, nil
}

// ForallExec runs a docker subcommand (args, already past the "docker"
// token) against every selected machine's daemon over ssh, returning each
// machine's combined output.
func (o *Orchestrator) ForallExec(ctx context.Context, patterns, restrict []string, args []string) (map[string]string, error) {
	machines := Select(o.Cluster, patterns, restrict)
	out := map[string]string{}
	for _, m := range machines {
		real := o.Cluster.RealName(m.Name)
		target, err := o.Engine.ResolveTarget(ctx, real)
		if err != nil {
			return nil, err
		}
		fullArgs := append(o.Engine.Render(target), append([]string{"docker"}, args...)...)
		res, err := o.Engine.Adapter.Run(ctx, tooladapter.ToolSSH, fullArgs, nil)
		if err != nil {
			return nil, clustererr.WrapAdapter(err, "docker %s on %s", strings.Join(args, " "), real)
		}
		out[real] = res.Stdout
	}
	return out, nil
}

// SortSummaries orders Ls output by real machine name for reproducible CLI
// output.
func SortSummaries(s []MachineSummary) {
	sort.Slice(s, func(i, j int) bool { return s[i].Real < s[j].Real })
}

// Node runs a raw "docker-machine <args...> <realname>" subcommand against
// every selected machine (the "node" verb, spec §4.11) — the one verb that
// talks to the provisioner directly rather than the guest's docker daemon,
// e.g. "node inspect", "node ip", "node regenerate-certs".
func (o *Orchestrator) Node(ctx context.Context, patterns, restrict []string, args []string) (map[string]string, error) {
	machines := Select(o.Cluster, patterns, restrict)
	out := map[string]string{}
	for _, m := range machines {
		real := o.Cluster.RealName(m.Name)
		fullArgs := append(append([]string{}, args...), real)
		res, err := o.Engine.Adapter.Run(ctx, tooladapter.ToolDockerMachine, fullArgs, nil)
		if err != nil {
			return nil, clustererr.WrapAdapter(err, "docker-machine %s on %s", strings.Join(args, " "), real)
		}
		out[real] = res.Stdout
	}
	return out, nil
}
