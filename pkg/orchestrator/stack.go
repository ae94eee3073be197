package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cuemby/shipwright/pkg/clustererr"
	"github.com/cuemby/shipwright/pkg/compose"
	"github.com/cuemby/shipwright/pkg/envsubst"
	"github.com/cuemby/shipwright/pkg/tooladapter"
	"github.com/cuemby/shipwright/pkg/types"
)

// PickMaster exposes pickMaster to callers outside this package (the HTTP
// control surface's /swarm and /stack handlers need it too).
func (o *Orchestrator) PickMaster(ctx context.Context, patterns []string) (*types.Machine, error) {
	return o.pickMaster(ctx, patterns)
}

// StackRequest is one file to linearise and forward, per spec §4.11: "pick
// a running master, linearise each supplied compose file, substitute
// environment for those flagged, and forward the compose/stack subcommand
// with transferred files."
type StackRequest struct {
	File         string
	Substitution bool
}

// Swarm linearises each of files and runs "docker-compose -f <file1> -f
// <file2> ... up -d" against the chosen master (the "swarm" verb:
// classic/per-host compose bring-up on the bootstrap master).
func (o *Orchestrator) Swarm(ctx context.Context, patterns []string, files []StackRequest) (*types.Machine, error) {
	return o.forwardCompose(ctx, patterns, files, "docker-compose", "-f", nil, []string{"up", "-d"})
}

// Stack linearises each of files and runs "docker stack deploy -c <file1>
// -c <file2> ... <name>" against the chosen master (the "stack" verb: Swarm
// Mode stack deploy). name is the stack project name.
func (o *Orchestrator) Stack(ctx context.Context, patterns []string, files []StackRequest, name string) (*types.Machine, error) {
	if name == "" {
		name = "default"
	}
	return o.forwardCompose(ctx, patterns, files, "docker", "-c", []string{"stack", "deploy"}, []string{name})
}

// forwardCompose stages every linearised compose file onto the chosen
// master, then runs one "<tool> <leadArgs> <fileFlag> <remote1> <fileFlag>
// <remote2> ... <trailingArgs>" command referencing all of them (spec
// §4.11).
func (o *Orchestrator) forwardCompose(ctx context.Context, patterns []string, files []StackRequest, tool, fileFlag string, leadArgs, trailingArgs []string) (*types.Machine, error) {
	master, err := o.pickMaster(ctx, patterns)
	if err != nil {
		return nil, err
	}
	realName := o.Cluster.RealName(master.Name)
	target, err := o.Engine.ResolveTarget(ctx, realName)
	if err != nil {
		return nil, err
	}

	var env map[string]string
	var fileArgs []string
	for _, f := range files {
		source := f.File
		if !filepath.IsAbs(source) {
			source = filepath.Join(o.Cluster.Dir, source)
		}
		doc, order, err := compose.Linearize(source)
		if err != nil {
			return nil, err
		}
		out, err := compose.Marshal(doc, order)
		if err != nil {
			return nil, err
		}
		if f.Substitution {
			if env == nil {
				env, err = o.Engine.Discovery.Read()
				if err != nil {
					return nil, err
				}
				for _, kv := range os.Environ() {
					k, v, ok := cutEnv(kv)
					if ok {
						if _, exists := env[k]; !exists {
							env[k] = v
						}
					}
				}
			}
			substituted, err := envsubst.Substitute(string(out), env, types.SubstitutionScope{Scope: types.ScopeText})
			if err != nil {
				return nil, clustererr.WrapConfig(err, "substitute compose file %s", f.File)
			}
			out = []byte(substituted)
		}

		remotePath := fmt.Sprintf("/tmp/shipwright-%s.yml", filepath.Base(source))
		tmp, err := os.CreateTemp("", "shipwright-compose-*.yml")
		if err != nil {
			return nil, clustererr.Internal("stage linearised compose file: %v", err)
		}
		if _, err := tmp.Write(out); err != nil {
			tmp.Close()
			return nil, clustererr.Internal("write linearised compose file: %v", err)
		}
		tmp.Close()
		defer os.Remove(tmp.Name())

		if err := o.Engine.Transfer.Copy(ctx, target, types.FileEntry{Source: tmp.Name(), Destination: remotePath}, nil); err != nil {
			return nil, err
		}
		fileArgs = append(fileArgs, fileFlag, remotePath)
	}

	args := append(o.Engine.Render(target), tool)
	args = append(args, leadArgs...)
	args = append(args, fileArgs...)
	args = append(args, trailingArgs...)
	if _, err := o.Engine.Adapter.Run(ctx, tooladapter.ToolSSH, args, nil); err != nil {
		return nil, clustererr.WrapAdapter(err, "%s on %s", tool, realName)
	}
	return master, nil
}

func cutEnv(kv string) (string, string, bool) {
	for i := 0; i < len(kv); i++ {
		if kv[i] == '=' {
			return kv[:i], kv[i+1:], true
		}
	}
	return "", "", false
}
