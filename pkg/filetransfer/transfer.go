package filetransfer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cuemby/shipwright/pkg/clustererr"
	"github.com/cuemby/shipwright/pkg/envsubst"
	"github.com/cuemby/shipwright/pkg/sshtarget"
	"github.com/cuemby/shipwright/pkg/tooladapter"
	"github.com/cuemby/shipwright/pkg/types"
	"github.com/google/uuid"
)

// Transfer drives one machine's file-copy entries.
type Transfer struct {
	Adapter *tooladapter.Adapter
	// YAMLDir resolves a FileEntry.Source relative path.
	YAMLDir string
}

// New returns a Transfer rooted at yamlDir, driving tool invocations through
// adapter.
func New(adapter *tooladapter.Adapter, yamlDir string) *Transfer {
	return &Transfer{Adapter: adapter, YAMLDir: yamlDir}
}

// Copy places one FileEntry onto target, applying substitution, recursion,
// sudo staging, and the optional post-placement chmod/chown/chgrp.
func (t *Transfer) Copy(ctx context.Context, target sshtarget.Target, entry types.FileEntry, env map[string]string) error {
	source := entry.Source
	if !filepath.IsAbs(source) {
		source = filepath.Join(t.YAMLDir, source)
	}

	info, err := os.Stat(source)
	if err != nil {
		return clustererr.ConfigError("file source %s: %v", source, err)
	}
	recurse := entry.Recurse == types.RecurseOn || (entry.Recurse == types.RecurseAuto && info.IsDir())

	substitute := entry.Substitution.Scope != types.ScopeNone && entry.Substitution.Scope != ""
	if substitute && !info.IsDir() {
		if err := t.copyWithSubstitution(ctx, target, source, entry, env); err != nil {
			return err
		}
	} else if entry.Sudo {
		if err := t.copyViaSudoStaging(ctx, target, source, entry.Destination, recurse); err != nil {
			return err
		}
	} else if err := t.copyDirect(ctx, target, source, entry.Destination, recurse, entry.Delta); err != nil {
		return err
	}

	return t.applyPermissions(ctx, target, entry)
}

func (t *Transfer) copyWithSubstitution(ctx context.Context, target sshtarget.Target, source string, entry types.FileEntry, env map[string]string) error {
	data, err := os.ReadFile(source)
	if err != nil {
		return clustererr.WrapConfig(err, "read %s for substitution", source)
	}
	substituted, err := envsubst.Substitute(string(data), env, entry.Substitution)
	if err != nil {
		return clustererr.WrapConfig(err, "substitute %s", source)
	}

	tmp, err := os.CreateTemp("", "shipwright-subst-*")
	if err != nil {
		return clustererr.Internal("create substitution temp file: %v", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(substituted); err != nil {
		tmp.Close()
		return clustererr.Internal("write substitution temp file: %v", err)
	}
	tmp.Close()

	if entry.Sudo {
		return t.copyViaSudoStaging(ctx, target, tmp.Name(), entry.Destination, false)
	}
	return t.copyDirect(ctx, target, tmp.Name(), entry.Destination, false, entry.Delta)
}

func (t *Transfer) copyDirect(ctx context.Context, target sshtarget.Target, source, dest string, recurse, delta bool) error {
	if delta {
		args := []string{"-a"}
		if recurse {
			source += "/"
			dest += "/"
		}
		args = append(args, source, sshtarget.SCPDestination(target, dest))
		if _, err := t.Adapter.Run(ctx, tooladapter.ToolRsync, args, nil); err != nil {
			return clustererr.WrapAdapter(err, "rsync %s -> %s", source, dest)
		}
		return nil
	}

	args := sshtarget.Render("", target)
	if recurse {
		args = append([]string{"-r"}, args...)
	}
	args = append(args, source, sshtarget.SCPDestination(target, dest))
	if _, err := t.Adapter.Run(ctx, tooladapter.ToolSCP, args, nil); err != nil {
		return clustererr.WrapAdapter(err, "scp %s -> %s", source, dest)
	}
	return nil
}

// copyViaSudoStaging copies source to a random temp path on the guest, then
// moves it into place with elevated privileges over ssh (spec §4.8).
func (t *Transfer) copyViaSudoStaging(ctx context.Context, target sshtarget.Target, source, dest string, recurse bool) error {
	stagingPath := fmt.Sprintf("/tmp/shipwright-%s", uuid.New().String())

	if err := t.copyDirect(ctx, target, source, stagingPath, recurse, false); err != nil {
		return err
	}

	moveArgs := append(sshtarget.Render("", target), "sudo", "mkdir", "-p", filepath.Dir(dest), "&&",
		"sudo", "mv", stagingPath, dest)
	if _, err := t.Adapter.Run(ctx, tooladapter.ToolSSH, moveArgs, nil); err != nil {
		return clustererr.WrapAdapter(err, "sudo move staged file to %s on %s", dest, target.Host)
	}
	return nil
}

func (t *Transfer) applyPermissions(ctx context.Context, target sshtarget.Target, entry types.FileEntry) error {
	sudoPrefix := ""
	if entry.Sudo {
		sudoPrefix = "sudo "
	}
	var cmds []string
	if entry.Mode != "" {
		cmds = append(cmds, fmt.Sprintf("%schmod %s %s", sudoPrefix, entry.Mode, entry.Destination))
	}
	if entry.Owner != "" {
		cmds = append(cmds, fmt.Sprintf("%schown %s %s", sudoPrefix, entry.Owner, entry.Destination))
	}
	if entry.Group != "" {
		cmds = append(cmds, fmt.Sprintf("%schgrp %s %s", sudoPrefix, entry.Group, entry.Destination))
	}
	for _, cmd := range cmds {
		args := append(sshtarget.Render("", target), cmd)
		if _, err := t.Adapter.Run(ctx, tooladapter.ToolSSH, args, nil); err != nil {
			return clustererr.WrapAdapter(err, "apply permissions on %s: %s", entry.Destination, cmd)
		}
	}
	return nil
}
