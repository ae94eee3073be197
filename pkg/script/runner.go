package script

import (
	"context"
	"path/filepath"

	"github.com/cuemby/shipwright/pkg/clustererr"
	"github.com/cuemby/shipwright/pkg/envsubst"
	"github.com/cuemby/shipwright/pkg/filetransfer"
	"github.com/cuemby/shipwright/pkg/sshtarget"
	"github.com/cuemby/shipwright/pkg/tooladapter"
	"github.com/cuemby/shipwright/pkg/types"
)

// Runner executes a machine's prelude/addendum entries in order, stopping
// and returning the first error (spec §4.9: non-zero exit aborts init).
type Runner struct {
	Adapter  *tooladapter.Adapter
	Transfer *filetransfer.Transfer
}

// New returns a Runner driving tool invocations through adapter, staging
// copied scripts via transfer.
func New(adapter *tooladapter.Adapter, transfer *filetransfer.Transfer) *Runner {
	return &Runner{Adapter: adapter, Transfer: transfer}
}

// RunAll executes entries in order against target, substituting env per
// each entry's scope.
func (r *Runner) RunAll(ctx context.Context, target sshtarget.Target, entries []types.ScriptEntry, env map[string]string) error {
	for _, e := range entries {
		if err := r.run(ctx, target, e, env); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) run(ctx context.Context, target sshtarget.Target, e types.ScriptEntry, env map[string]string) error {
	exec := e.Exec
	if e.Remote && e.Copy {
		guestPath := filepath.Join("/tmp", "shipwright-script-"+filepath.Base(e.Exec))
		if err := r.Transfer.Copy(ctx, target, types.FileEntry{
			Source:       e.Exec,
			Destination:  guestPath,
			Mode:         "0755",
			Substitution: e.Substitution,
		}, env); err != nil {
			return clustererr.WrapAdapter(err, "stage script %s", e.Exec)
		}
		exec = guestPath
	}

	args, err := envsubst.SubstituteArgs(e.Args, env, e.Substitution)
	if err != nil {
		return clustererr.WrapConfig(err, "substitute args for %s", exec)
	}

	if e.Remote {
		return r.runRemote(ctx, target, exec, args, e.Sudo)
	}
	return r.runLocal(ctx, exec, args, e.Sudo)
}

func (r *Runner) runRemote(ctx context.Context, target sshtarget.Target, exec string, args []string, sudo bool) error {
	cmd := append([]string{}, exec)
	cmd = append(cmd, args...)
	if sudo {
		cmd = append([]string{"sudo"}, cmd...)
	}
	sshArgs := append(sshtarget.Render("", target), cmd...)
	if _, err := r.Adapter.Run(ctx, tooladapter.ToolSSH, sshArgs, nil); err != nil {
		return clustererr.WrapAdapter(err, "run %s on %s", exec, target.Host)
	}
	return nil
}

func (r *Runner) runLocal(ctx context.Context, exec string, args []string, sudo bool) error {
	cmdArgs := args
	binary := exec
	if sudo {
		binary = "sudo"
		cmdArgs = append([]string{exec}, args...)
	}
	if _, err := r.Adapter.Run(ctx, tooladapter.Tool(binary), cmdArgs, nil); err != nil {
		return clustererr.WrapAdapter(err, "run %s", exec)
	}
	return nil
}
