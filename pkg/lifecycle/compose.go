package lifecycle

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cuemby/shipwright/pkg/clustererr"
	"github.com/cuemby/shipwright/pkg/compose"
	"github.com/cuemby/shipwright/pkg/envsubst"
	"github.com/cuemby/shipwright/pkg/sshtarget"
	"github.com/cuemby/shipwright/pkg/tooladapter"
	"github.com/cuemby/shipwright/pkg/types"
)

// bringUpCompose linearises and brings up each of m's declared compose
// entries on realName's daemon (spec §4.10, item 4's "compose-per-machine
// up" step; the linearisation step itself is spec §4.2).
func (e *Engine) bringUpCompose(ctx context.Context, m *types.Machine, realName string, target sshtarget.Target) error {
	for _, c := range m.Compose {
		if err := e.bringUpOneCompose(ctx, c, realName, target); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) bringUpOneCompose(ctx context.Context, c types.ComposeEntry, realName string, target sshtarget.Target) error {
	source := c.File
	if !filepath.IsAbs(source) {
		source = filepath.Join(e.Transfer.YAMLDir, source)
	}

	doc, order, err := compose.Linearize(source)
	if err != nil {
		return err
	}
	out, err := compose.Marshal(doc, order)
	if err != nil {
		return err
	}

	if c.Substitution {
		env, err := e.substitutionEnv()
		if err != nil {
			return err
		}
		substituted, err := envsubst.Substitute(string(out), env, types.SubstitutionScope{Scope: types.ScopeText})
		if err != nil {
			return clustererr.WrapConfig(err, "substitute compose file %s", c.File)
		}
		out = []byte(substituted)
	}

	tmp, err := os.CreateTemp("", "shipwright-compose-*.yml")
	if err != nil {
		return clustererr.Internal("stage linearised compose file: %v", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		return clustererr.Internal("write linearised compose file: %v", err)
	}
	tmp.Close()

	remotePath := fmt.Sprintf("/tmp/shipwright-%s.yml", projectOrDefault(c.Project))
	if err := e.Transfer.Copy(ctx, target, types.FileEntry{
		Source:      tmp.Name(),
		Destination: remotePath,
	}, nil); err != nil {
		return err
	}

	args := append(e.render(target), "docker-compose", "-f", remotePath)
	if c.Project != "" {
		args = append(args, "-p", c.Project)
	}
	args = append(args, "up", "-d")
	if _, err := e.Adapter.Run(ctx, tooladapter.ToolSSH, args, nil); err != nil {
		return clustererr.WrapAdapter(err, "compose up %s on %s", c.File, realName)
	}
	return nil
}

func projectOrDefault(project string) string {
	if project == "" {
		return "default"
	}
	return project
}

// substitutionEnv merges the discovery cache with the process environment,
// discovery values taking precedence (spec §4.3: substitution reads both).
func (e *Engine) substitutionEnv() (map[string]string, error) {
	env := map[string]string{}
	for _, kv := range os.Environ() {
		k, v, ok := splitEnv(kv)
		if ok {
			env[k] = v
		}
	}
	cached, err := e.Discovery.Read()
	if err != nil {
		return nil, err
	}
	for k, v := range cached {
		env[k] = v
	}
	return env, nil
}

func splitEnv(kv string) (string, string, bool) {
	for i := 0; i < len(kv); i++ {
		if kv[i] == '=' {
			return kv[:i], kv[i+1:], true
		}
	}
	return "", "", false
}
