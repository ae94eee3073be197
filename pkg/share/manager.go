package share

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/cuemby/shipwright/pkg/clustererr"
	"github.com/cuemby/shipwright/pkg/log"
	"github.com/cuemby/shipwright/pkg/sshtarget"
	"github.com/cuemby/shipwright/pkg/tooladapter"
	"github.com/cuemby/shipwright/pkg/types"
)

const bootlocalPath = "/var/lib/boot2docker/bootlocal.sh"

// maxMountRetries bounds the backoff retry loop for a guest-side mount
// command (spec §4.6).
const maxMountRetries = 3

// Manager mounts/unmounts one machine's declared shares.
type Manager struct {
	Adapter *tooladapter.Adapter
}

// New returns a Manager driving tool invocations through adapter.
func New(adapter *tooladapter.Adapter) *Manager {
	return &Manager{Adapter: adapter}
}

// Name computes the deterministic vboxsf share name for a (hostPath,
// machineName) pair: "sf-" plus an 8-character hex digest, stable across runs so
// re-registering the same share is idempotent.
func Name(hostPath, machineName string) string {
	sum := sha256.Sum256([]byte(hostPath + "\x00" + machineName))
	return "sf-" + hex.EncodeToString(sum[:])[:8]
}

// BringUp mounts s for realMachineName on first use (registering the vboxsf
// folder or syncing the initial rsync copy), per share.Type.
func (m *Manager) BringUp(ctx context.Context, realMachineName, vmName string, target sshtarget.Target, s types.Share) error {
	switch s.Type {
	case types.ShareVBoxSF:
		return m.bringUpVBoxSF(ctx, realMachineName, vmName, target, s)
	default:
		return m.bringUpRsync(ctx, target, s)
	}
}

func (m *Manager) bringUpVBoxSF(ctx context.Context, realMachineName, vmName string, target sshtarget.Target, s types.Share) error {
	name := Name(s.HostPath, realMachineName)

	if _, err := m.Adapter.Run(ctx, tooladapter.ToolVBoxManage, []string{"controlvm", vmName, "poweroff"}, nil); err != nil {
		log.WithMachine(realMachineName).Debug().Err(err).Msg("vm already stopped")
	}

	args := []string{"sharedfolder", "add", vmName, "--name", name, "--hostpath", s.HostPath}
	if _, err := m.Adapter.Run(ctx, tooladapter.ToolVBoxManage, args, nil); err != nil {
		return clustererr.WrapAdapter(err, "register vboxsf share %q on %s", name, vmName)
	}

	mountLine := fmt.Sprintf("mount -t vboxsf -o uid=1000,gid=50 %s %s", name, s.GuestPath)
	if err := m.appendIdempotent(ctx, target, bootlocalPath, mountLine); err != nil {
		return err
	}

	return m.mountWithRetry(ctx, target, mountLine)
}

// appendIdempotent ensures line is present exactly once in the guest file at
// path, appending via a grep-guarded shell one-liner so repeated bring-ups
// don't duplicate the mount entry.
func (m *Manager) appendIdempotent(ctx context.Context, target sshtarget.Target, path, line string) error {
	script := fmt.Sprintf("grep -qxF %q %s 2>/dev/null || echo %q >> %s", line, path, line, path)
	args := append(sshtarget.Render("", target), script)
	_, err := m.Adapter.Run(ctx, tooladapter.ToolSSH, args, nil)
	if err != nil {
		return clustererr.WrapNetwork(err, "append mount line to %s on %s", path, target.Host)
	}
	return nil
}

func (m *Manager) mountWithRetry(ctx context.Context, target sshtarget.Target, mountLine string) error {
	backoff := time.Second
	var lastErr error
	for attempt := 0; attempt < maxMountRetries; attempt++ {
		args := append(sshtarget.Render("", target), "sudo", mountLine)
		if _, err := m.Adapter.Run(ctx, tooladapter.ToolSSH, args, nil); err != nil {
			lastErr = err
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		return nil
	}
	return clustererr.WrapNetwork(lastErr, "mount share on %s after %d attempts", target.Host, maxMountRetries)
}

// Remount re-establishes s on a machine that is already registered
// (the "initialised → running" and "stopped → running" transitions, spec
// §4.10/§4.6): vboxsf shares are re-mounted over ssh since the guest mount
// table does not survive a stop/start cycle; rsync shares need only their
// initial push.
func (m *Manager) Remount(ctx context.Context, realMachineName string, target sshtarget.Target, s types.Share) error {
	if s.Type != types.ShareVBoxSF {
		return nil
	}
	name := Name(s.HostPath, realMachineName)
	mountLine := fmt.Sprintf("mount -t vboxsf -o uid=1000,gid=50 %s %s", name, s.GuestPath)
	return m.mountWithRetry(ctx, target, mountLine)
}

func (m *Manager) bringUpRsync(ctx context.Context, target sshtarget.Target, s types.Share) error {
	dest := sshtarget.SCPDestination(target, s.GuestPath)
	args := []string{"-a", s.HostPath + "/", dest + "/"}
	if _, err := m.Adapter.Run(ctx, tooladapter.ToolRsync, args, nil); err != nil {
		return clustererr.WrapAdapter(err, "rsync %s -> %s", s.HostPath, dest)
	}
	return nil
}

// SyncBack reverses an rsync share's direction (guest -> host), used on
// halt and on the "sync" verb. vboxsf shares need no reverse sync: the
// guest mount is the live view of the host directory.
func (m *Manager) SyncBack(ctx context.Context, target sshtarget.Target, s types.Share) error {
	if s.Type != types.ShareRsync {
		return nil
	}
	src := sshtarget.SCPDestination(target, s.GuestPath)
	args := []string{"-a", src + "/", s.HostPath + "/"}
	if _, err := m.Adapter.Run(ctx, tooladapter.ToolRsync, args, nil); err != nil {
		return clustererr.WrapAdapter(err, "rsync %s -> %s", src, s.HostPath)
	}
	return nil
}
