package lifecycle

import (
	"context"
	"time"

	"github.com/cuemby/shipwright/pkg/checkpoint"
	"github.com/cuemby/shipwright/pkg/clustererr"
	"github.com/cuemby/shipwright/pkg/discovery"
	"github.com/cuemby/shipwright/pkg/filetransfer"
	"github.com/cuemby/shipwright/pkg/log"
	"github.com/cuemby/shipwright/pkg/metrics"
	"github.com/cuemby/shipwright/pkg/preseed"
	"github.com/cuemby/shipwright/pkg/script"
	"github.com/cuemby/shipwright/pkg/share"
	"github.com/cuemby/shipwright/pkg/tooladapter"
	"github.com/cuemby/shipwright/pkg/token"
	"github.com/cuemby/shipwright/pkg/types"
)

// retryMax is N in spec §4.10's "retried up to N=3 on transient failures".
const retryMax = 3

const (
	backoffBase = time.Second
	backoffCap  = 30 * time.Second
)

// Engine drives machines through the lifecycle state machine, holding the
// collaborators every transition needs.
type Engine struct {
	Adapter    *tooladapter.Adapter
	Checkpoint *checkpoint.Store
	Shares     *share.Manager
	Preseed    *preseed.Preseeder
	Transfer   *filetransfer.Transfer
	Scripts    *script.Runner
	Discovery  *discovery.Cache
	Tokens     *token.Store

	// Dir and Root locate the cluster state directory and sidecar files
	// (spec §6): "<Dir>/.<Root>.init", "<Dir>/.<Root>.mch", etc.
	Dir  string
	Root string

	// SSHTemplate is the "-ssh TMPL" override (spec §6); "" uses the
	// package default.
	SSHTemplate string

	// CachePolicy and CacheMachine select the Image Pre-seeder's strategy
	// (spec §4.7); CacheMachine names the machine used for
	// named-cache-machine policy.
	CachePolicy  preseed.CachePolicy
	CacheMachine string
}

// New builds an Engine whose collaborators all read/write the same cluster
// state directory (dir, root), opening the bbolt checkpoint file in the
// process.
func New(dir, root string, adapter *tooladapter.Adapter) (*Engine, error) {
	cp, err := checkpoint.Open(dir, root)
	if err != nil {
		return nil, err
	}
	return &Engine{
		Adapter:    adapter,
		Checkpoint: cp,
		Shares:     share.New(adapter),
		Preseed:    preseed.New(adapter),
		Transfer:   filetransfer.New(adapter, dir),
		Scripts:    script.New(adapter, filetransfer.New(adapter, dir)),
		Discovery:  discovery.New(dir, root),
		Tokens:     token.New(dir, root, adapter),
		Dir:        dir,
		Root:       root,
	}, nil
}

// Close releases the checkpoint database.
func (e *Engine) Close() error {
	return e.Checkpoint.Close()
}

// order is the linear "up" sequence from spec §4.10. stopped/destroyed are
// reached by explicit halt/destroy requests, never by walking past running.
var order = []types.MachineState{
	types.StateAbsent,
	types.StateCreated,
	types.StateTagged,
	types.StateConfigured,
	types.StateInitialised,
	types.StateRunning,
}

func indexOf(s types.MachineState) int {
	for i, v := range order {
		if v == s {
			return i
		}
	}
	return -1
}

// CurrentState returns machine's last checkpointed state, StateAbsent if
// none is recorded yet.
func (e *Engine) CurrentState(realName string) (types.MachineState, error) {
	rec, ok, err := e.Checkpoint.Get(realName)
	if err != nil {
		return "", err
	}
	if !ok {
		return types.StateAbsent, nil
	}
	return rec.State, nil
}

// Up drives m forward from its current checkpointed state to running,
// stopping at the first permanent failure.
func (e *Engine) Up(ctx context.Context, cluster *types.Cluster, m *types.Machine) *types.MachineResult {
	realName := cluster.RealName(m.Name)
	from, err := e.CurrentState(realName)
	if err != nil {
		return &types.MachineResult{Machine: realName, Err: err}
	}
	result := &types.MachineResult{Machine: realName, FromState: from}

	startIdx := indexOf(from)
	switch from {
	case types.StateStopped:
		// a halted machine comes back through "initialised -> running"
		startIdx = indexOf(types.StateInitialised)
	case types.StateFailed, types.StateDestroyed:
		startIdx = indexOf(types.StateAbsent)
	}
	if startIdx < 0 {
		result.Err = clustererr.Internal("unknown checkpointed state %q for %s", from, realName)
		return result
	}

	cur := from
	for i := startIdx; i < len(order)-1; i++ {
		next := order[i+1]
		attempts, err := e.runTransition(ctx, cluster, m, realName, cur, next)
		result.Attempts += attempts
		if err != nil {
			result.ToState = cur
			result.Err = err
			e.markFailed(realName, next)
			return result
		}
		cur = next
		if err := e.Checkpoint.Set(realName, cur, 0); err != nil {
			result.ToState = cur
			result.Err = err
			return result
		}
	}
	result.ToState = cur
	return result
}

// Halt drives a running machine to stopped.
func (e *Engine) Halt(ctx context.Context, cluster *types.Cluster, m *types.Machine) *types.MachineResult {
	realName := cluster.RealName(m.Name)
	from, err := e.CurrentState(realName)
	if err != nil {
		return &types.MachineResult{Machine: realName, Err: err}
	}
	result := &types.MachineResult{Machine: realName, FromState: from}
	attempts, err := e.runTransition(ctx, cluster, m, realName, from, types.StateStopped)
	result.Attempts = attempts
	if err != nil {
		result.ToState = from
		result.Err = err
		e.markFailed(realName, types.StateStopped)
		return result
	}
	result.ToState = types.StateStopped
	if err := e.Checkpoint.Set(realName, types.StateStopped, 0); err != nil {
		result.Err = err
	}
	return result
}

// Destroy drives m (from any state) to destroyed, clears its
// initialisation marker, and checkpoints it as destroyed.
func (e *Engine) Destroy(ctx context.Context, cluster *types.Cluster, m *types.Machine) *types.MachineResult {
	realName := cluster.RealName(m.Name)
	from, err := e.CurrentState(realName)
	if err != nil {
		return &types.MachineResult{Machine: realName, Err: err}
	}
	result := &types.MachineResult{Machine: realName, FromState: from}
	attempts, err := e.runTransition(ctx, cluster, m, realName, from, types.StateDestroyed)
	result.Attempts = attempts
	if err != nil {
		result.ToState = from
		result.Err = err
		e.markFailed(realName, types.StateDestroyed)
		return result
	}
	result.ToState = types.StateDestroyed
	if err := checkpoint.ClearInitialised(e.Dir, e.Root, realName); err != nil {
		result.Err = err
		return result
	}
	if err := e.Checkpoint.Set(realName, types.StateDestroyed, 0); err != nil {
		result.Err = err
	}
	return result
}

func (e *Engine) markFailed(realName string, to types.MachineState) {
	metrics.MachinesFailed.WithLabelValues(string(to)).Inc()
	if err := e.Checkpoint.Set(realName, types.StateFailed, 0); err != nil {
		log.WithMachine(realName).Warn().Err(err).Msg("failed to checkpoint failure state")
	}
}

// runTransition executes the (from, to) step with retry, returning the
// number of attempts made, and records the transition's outcome/duration and
// any retries to the per-machine-task counters (spec §5/§9).
func (e *Engine) runTransition(ctx context.Context, cluster *types.Cluster, m *types.Machine, realName string, from, to types.MachineState) (int, error) {
	timer := metrics.NewTimer()
	backoff := backoffBase
	var lastErr error
	for attempt := 1; attempt <= retryMax; attempt++ {
		err := e.step(ctx, cluster, m, realName, from, to)
		if err == nil {
			metrics.MachineTransitions.WithLabelValues(string(to), "success").Inc()
			timer.ObserveDurationVec(metrics.MachineTransitionDuration, string(to))
			return attempt, nil
		}
		lastErr = err
		if !clustererr.IsTransient(err) || attempt == retryMax {
			metrics.MachineTransitions.WithLabelValues(string(to), "failure").Inc()
			timer.ObserveDurationVec(metrics.MachineTransitionDuration, string(to))
			return attempt, err
		}
		metrics.MachineRetries.WithLabelValues(string(to)).Inc()
		log.WithMachine(realName).Warn().Err(err).
			Str("from", string(from)).Str("to", string(to)).
			Int("attempt", attempt).Msg("transient failure, retrying")
		select {
		case <-ctx.Done():
			metrics.MachineTransitions.WithLabelValues(string(to), "failure").Inc()
			timer.ObserveDurationVec(metrics.MachineTransitionDuration, string(to))
			return attempt, clustererr.ErrCancelled
		case <-time.After(backoff):
		}
		if backoff < backoffCap {
			backoff *= 2
			if backoff > backoffCap {
				backoff = backoffCap
			}
		}
	}
	metrics.MachineTransitions.WithLabelValues(string(to), "failure").Inc()
	timer.ObserveDurationVec(metrics.MachineTransitionDuration, string(to))
	return retryMax, lastErr
}

// step dispatches to the concrete transition implementation in transitions.go.
func (e *Engine) step(ctx context.Context, cluster *types.Cluster, m *types.Machine, realName string, from, to types.MachineState) error {
	switch to {
	case types.StateCreated:
		return e.create(ctx, cluster, m, realName)
	case types.StateTagged:
		return e.tag(ctx, m, realName)
	case types.StateConfigured:
		return e.configure(ctx, m, realName)
	case types.StateInitialised:
		return e.initialise(ctx, cluster, m, realName)
	case types.StateRunning:
		return e.start(ctx, m, realName)
	case types.StateStopped:
		return e.stop(ctx, m, realName)
	case types.StateDestroyed:
		return e.destroy(ctx, m, realName)
	default:
		return clustererr.Internal("no transition to state %q", to)
	}
}
