package orchestrator

import (
	"context"
	"fmt"

	"github.com/cuemby/shipwright/pkg/clustererr"
	"github.com/cuemby/shipwright/pkg/sshtarget"
	"github.com/cuemby/shipwright/pkg/tooladapter"
	"github.com/cuemby/shipwright/pkg/types"
)

// joinSwarm issues "docker swarm join" on m against the bootstrap master's
// address, using the manager-join token when asManager is set and the
// worker-join token otherwise (spec §4.10 item 6).
func (o *Orchestrator) joinSwarm(ctx context.Context, m *types.Machine, bootstrapTarget sshtarget.Target, tok string, asManager bool) error {
	realName := o.Cluster.RealName(m.Name)
	target, err := o.Engine.ResolveTarget(ctx, realName)
	if err != nil {
		return err
	}

	joinTok := tok
	if asManager {
		// the worker-join token materialised above is not valid for manager
		// joins; re-request one scoped to managers.
		managerTok, err := o.Engine.Tokens.Create(ctx, false)
		if err != nil {
			return err
		}
		joinTok = managerTok
	}

	args := append(o.Engine.Render(target), "docker", "swarm", "join",
		"--token", joinTok, fmt.Sprintf("%s:2377", bootstrapTarget.Host))
	if _, err := o.Engine.Adapter.Run(ctx, tooladapter.ToolSSH, args, nil); err != nil {
		return clustererr.WrapAdapter(err, "swarm join on %s", realName)
	}
	return nil
}

// Token returns the cluster's current swarm join token, creating one on the
// bootstrap master if none has been materialised yet (the "token" verb).
func (o *Orchestrator) Token(ctx context.Context, force bool) (string, error) {
	return o.Engine.Tokens.Create(ctx, force)
}

// pickMaster returns a running master from masters to act as the compose/
// stack command target, preferring the first one whose state checkpoint
// reads running (spec §4.11: "random tie-break among healthy masters" — we
// keep selection deterministic here and let callers pre-shuffle patterns
// when true randomness is wanted).
func (o *Orchestrator) pickMaster(ctx context.Context, patterns []string) (*types.Machine, error) {
	candidates := Select(o.Cluster, patterns, nil)
	for _, m := range candidates {
		if !m.Master {
			continue
		}
		realName := o.Cluster.RealName(m.Name)
		state, err := o.Engine.CurrentState(realName)
		if err == nil && state == types.StateRunning {
			return m, nil
		}
	}
	return nil, clustererr.StateErr("no running master available")
}
