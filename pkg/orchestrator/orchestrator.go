package orchestrator

import (
	"context"

	"github.com/cuemby/shipwright/pkg/clustererr"
	"github.com/cuemby/shipwright/pkg/lifecycle"
	"github.com/cuemby/shipwright/pkg/log"
	"github.com/cuemby/shipwright/pkg/types"
)

// Orchestrator dispatches cluster-wide verbs over a machine selection,
// delegating each machine's state transitions to a lifecycle.Engine.
type Orchestrator struct {
	Cluster *types.Cluster
	Engine  *lifecycle.Engine
	// Concurrency overrides the default per-run bound (spec §5); 0 uses
	// concurrencyFor(len(machines)).
	Concurrency int64
}

// New returns an Orchestrator for cluster, driven by engine.
func New(cluster *types.Cluster, engine *lifecycle.Engine) *Orchestrator {
	return &Orchestrator{Cluster: cluster, Engine: engine}
}

func (o *Orchestrator) limit(n int) int64 {
	if o.Concurrency > 0 {
		return o.Concurrency
	}
	return concurrencyFor(n)
}

// Up brings every machine matching patterns/restrict up to running, masters
// first (spec §4.10/§4.11/§5(b)): each phase's machines are brought up
// concurrently (bounded), and the worker phase does not start until every
// master in the master phase has finished (successfully or not).
func (o *Orchestrator) Up(ctx context.Context, patterns, restrict []string) ([]*types.MachineResult, error) {
	selected := Select(o.Cluster, patterns, restrict)
	masters, workers := partitionMasters(selected)

	masterResults := o.runPhase(ctx, masters, o.Engine.Up)
	anyMasterRunning := false
	for _, r := range masterResults {
		if r.Err == nil {
			anyMasterRunning = true
		}
	}

	if anyMasterRunning {
		if err := o.bootstrapSwarm(ctx, masters, workers); err != nil {
			log.WithComponent("orchestrator").Warn().Err(err).Msg("swarm bootstrap failed, continuing without it")
		}
	}

	workerResults := o.runPhase(ctx, workers, o.Engine.Up)

	return append(masterResults, workerResults...), nil
}

// Halt stops every selected machine.
func (o *Orchestrator) Halt(ctx context.Context, patterns, restrict []string) []*types.MachineResult {
	return o.runPhase(ctx, Select(o.Cluster, patterns, restrict), o.Engine.Halt)
}

// Destroy tears down every selected machine.
func (o *Orchestrator) Destroy(ctx context.Context, patterns, restrict []string) []*types.MachineResult {
	return o.runPhase(ctx, Select(o.Cluster, patterns, restrict), o.Engine.Destroy)
}

// Sync runs the reverse-rsync half of each selected rsync share without
// changing machine state (the "sync" verb, spec §4.11/§4.6).
func (o *Orchestrator) Sync(ctx context.Context, patterns, restrict []string) []*types.MachineResult {
	machines := Select(o.Cluster, patterns, restrict)
	tasks := make([]MachineTask[*types.MachineResult], len(machines))
	for i, m := range machines {
		m := m
		tasks[i] = func(ctx context.Context) *types.MachineResult {
			realName := o.Cluster.RealName(m.Name)
			result := &types.MachineResult{Machine: realName}
			target, err := o.Engine.ResolveTarget(ctx, realName)
			if err != nil {
				result.Err = err
				return result
			}
			for _, s := range m.Shares {
				if err := o.Engine.Shares.SyncBack(ctx, target, s); err != nil {
					result.Err = err
					return result
				}
			}
			return result
		}
	}
	return RunBounded(ctx, o.limit(len(machines)), tasks)
}

func (o *Orchestrator) runPhase(ctx context.Context, machines []*types.Machine, fn func(context.Context, *types.Cluster, *types.Machine) *types.MachineResult) []*types.MachineResult {
	if len(machines) == 0 {
		return nil
	}
	tasks := make([]MachineTask[*types.MachineResult], len(machines))
	for i, m := range machines {
		m := m
		tasks[i] = func(ctx context.Context) *types.MachineResult {
			return fn(ctx, o.Cluster, m)
		}
	}
	return RunBounded(ctx, o.limit(len(machines)), tasks)
}

// partitionMasters splits machines into masters and workers, preserving
// relative order within each group.
func partitionMasters(machines []*types.Machine) (masters, workers []*types.Machine) {
	for _, m := range machines {
		if m.Master {
			masters = append(masters, m)
		} else {
			workers = append(workers, m)
		}
	}
	return masters, workers
}

// bootstrapSwarm materialises the join token (once the bootstrap master is
// running) and joins every swarm-eligible worker and additional master
// (spec §4.10: "the first reached becomes the bootstrap init, subsequent
// masters join with manager-join token"; §5(c): "token writes happen-before
// worker join").
func (o *Orchestrator) bootstrapSwarm(ctx context.Context, masters, workers []*types.Machine) error {
	bootstrap := firstRunning(masters, func(m *types.Machine) bool {
		state, err := o.Engine.CurrentState(o.Cluster.RealName(m.Name))
		return err == nil && state == types.StateRunning
	})
	if bootstrap == nil {
		return clustererr.StateErr("no master reached running, cannot bootstrap swarm")
	}
	bootstrapReal := o.Cluster.RealName(bootstrap.Name)
	bootstrapTarget, err := o.Engine.ResolveTarget(ctx, bootstrapReal)
	if err != nil {
		return err
	}

	tok, err := o.Engine.Tokens.Create(ctx, false)
	if err != nil {
		return err
	}

	for _, m := range masters {
		if m == bootstrap || !m.Swarm {
			continue
		}
		if err := o.joinSwarm(ctx, m, bootstrapTarget, tok, true); err != nil {
			log.WithMachine(o.Cluster.RealName(m.Name)).Warn().Err(err).Msg("manager join failed")
		}
	}
	for _, m := range workers {
		if !m.Swarm {
			continue
		}
		if err := o.joinSwarm(ctx, m, bootstrapTarget, tok, false); err != nil {
			log.WithMachine(o.Cluster.RealName(m.Name)).Warn().Err(err).Msg("worker join failed")
		}
	}
	return nil
}

func firstRunning(masters []*types.Machine, running func(*types.Machine) bool) *types.Machine {
	for _, m := range masters {
		if running(m) {
			return m
		}
	}
	return nil
}
