package lifecycle

import (
	"context"
	"fmt"
	"strings"

	"github.com/cuemby/shipwright/pkg/checkpoint"
	"github.com/cuemby/shipwright/pkg/clustererr"
	"github.com/cuemby/shipwright/pkg/log"
	"github.com/cuemby/shipwright/pkg/semver"
	"github.com/cuemby/shipwright/pkg/sshtarget"
	"github.com/cuemby/shipwright/pkg/tooladapter"
	"github.com/cuemby/shipwright/pkg/types"
)

// create runs "absent -> created" (spec §4.10, item 1): provisioner create
// with driver options and cpu/memory/disk translations, then verifies
// reachability and upgrades the boot image if it trails the host.
func (e *Engine) create(ctx context.Context, cluster *types.Cluster, m *types.Machine, realName string) error {
	args := []string{"create", "-d", m.Driver}
	args = append(args, sizeFlags(m.Driver, m)...)
	for _, opt := range driverOptFlags(m.Driver, m.DriverOpts) {
		args = append(args, opt)
	}
	for _, k := range sortedKeys(m.Labels) {
		args = append(args, "--engine-label", fmt.Sprintf("%s=%s", k, m.Labels[k]))
	}
	args = append(args, realName)

	if _, err := e.Adapter.Run(ctx, tooladapter.ToolDockerMachine, args, nil); err != nil {
		return clustererr.WrapAdapter(err, "create machine %s", realName)
	}

	if _, err := e.machineField(ctx, realName, "ip"); err != nil {
		return clustererr.WrapNetwork(err, "verify ssh reachability for %s", realName)
	}

	return e.maybeUpgradeBootImage(ctx, realName)
}

// maybeUpgradeBootImage compares the host docker engine version to the
// machine's and runs "docker-machine upgrade" when the machine trails it
// (spec §4.10, item 1).
func (e *Engine) maybeUpgradeBootImage(ctx context.Context, realName string) error {
	hostVer, err := e.Adapter.Run(ctx, tooladapter.ToolDocker, []string{"version", "--format", "{{.Server.Version}}"}, nil)
	if err != nil {
		log.WithMachine(realName).Debug().Err(err).Msg("could not read host docker version, skipping upgrade check")
		return nil
	}
	machineVer, err := e.machineField(ctx, realName, "inspect", "-f", "{{.Driver.EngineVersion}}")
	if err != nil || machineVer == "" || machineVer == "<no value>" {
		return nil
	}
	if semver.LessThan(machineVer, trimmed(hostVer.Stdout)) {
		if _, err := e.Adapter.Run(ctx, tooladapter.ToolDockerMachine, []string{"upgrade", realName}, nil); err != nil {
			return clustererr.WrapAdapter(err, "upgrade boot image for %s", realName)
		}
	}
	return nil
}

func trimmed(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r' || s[len(s)-1] == ' ') {
		s = s[:len(s)-1]
	}
	return s
}

// tag runs "created -> tagged" (spec §4.10, item 2): labels were already
// applied via --engine-label at create time, so this transition only
// verifies the machine reports them.
func (e *Engine) tag(ctx context.Context, m *types.Machine, realName string) error {
	if len(m.Labels) == 0 {
		return nil
	}
	if _, err := e.machineField(ctx, realName, "inspect", "-f", "{{.HostOptions.EngineOptions.Labels}}"); err != nil {
		return clustererr.WrapAdapter(err, "verify labels on %s", realName)
	}
	return nil
}

// configure runs "tagged -> configured" (spec §4.10, item 3): virtualbox
// port forwards and share registration.
func (e *Engine) configure(ctx context.Context, m *types.Machine, realName string) error {
	for _, pf := range m.Ports {
		rule := fmt.Sprintf("%s,tcp,,%d,,%d", fmt.Sprintf("pf-%d", pf.HostPort), pf.HostPort, pf.GuestPort)
		if pf.Protocol == "udp" {
			rule = fmt.Sprintf("%s,udp,,%d,,%d", fmt.Sprintf("pf-%d", pf.HostPort), pf.HostPort, pf.GuestPort)
		}
		args := []string{"modifyvm", realName, "--natpf1", rule}
		if _, err := e.Adapter.Run(ctx, tooladapter.ToolVBoxManage, args, nil); err != nil {
			return clustererr.WrapAdapter(err, "install port forward %d->%d on %s", pf.HostPort, pf.GuestPort, realName)
		}
	}

	if len(m.Shares) == 0 {
		return nil
	}
	target, err := e.resolveTarget(ctx, realName)
	if err != nil {
		return err
	}
	for _, s := range m.Shares {
		if err := e.Shares.BringUp(ctx, realName, realName, target, s); err != nil {
			return err
		}
	}
	return nil
}

// initialise runs "configured -> initialised" (spec §4.10, item 4): the
// exactly-once sequence of registry logins, file copies, prelude scripts,
// image pre-seed, per-machine compose up, and addendum scripts.
func (e *Engine) initialise(ctx context.Context, cluster *types.Cluster, m *types.Machine, realName string) error {
	done, err := e.alreadyInitialised(realName)
	if err != nil {
		return err
	}
	if done {
		return nil
	}

	target, err := e.resolveTarget(ctx, realName)
	if err != nil {
		return err
	}

	for _, reg := range m.Registries {
		if err := e.Preseed.Login(ctx, target, reg); err != nil {
			return err
		}
	}

	for _, f := range m.Files {
		if err := e.Transfer.Copy(ctx, target, f, nil); err != nil {
			return err
		}
	}

	if err := e.Scripts.RunAll(ctx, target, m.Prelude, nil); err != nil {
		return err
	}

	cacheTarget := target
	if e.CacheMachine != "" {
		cacheTarget, err = e.resolveTarget(ctx, cluster.RealName(e.CacheMachine))
		if err != nil {
			return err
		}
	}
	for _, img := range m.Images {
		if err := e.Preseed.Seed(ctx, img, e.CachePolicy, target, cacheTarget, m.Registries); err != nil {
			return err
		}
	}

	if err := e.bringUpCompose(ctx, m, realName, target); err != nil {
		return err
	}

	if err := e.Scripts.RunAll(ctx, target, m.Addendum, nil); err != nil {
		return err
	}

	return e.markInitialised(realName)
}

func (e *Engine) alreadyInitialised(realName string) (bool, error) {
	return checkpoint.Initialised(e.Dir, e.Root, realName)
}

func (e *Engine) markInitialised(realName string) error {
	return checkpoint.MarkInitialised(e.Dir, e.Root, realName)
}

// start runs "initialised -> running" (spec §4.10, item 5): ensure started,
// re-mount shares, refresh discovery.
func (e *Engine) start(ctx context.Context, m *types.Machine, realName string) error {
	if _, err := e.Adapter.Run(ctx, tooladapter.ToolDockerMachine, []string{"start", realName}, nil); err != nil {
		log.WithMachine(realName).Debug().Err(err).Msg("start reported an error, machine may already be running")
	}

	target, err := e.resolveTarget(ctx, realName)
	if err != nil {
		return err
	}
	for _, s := range m.Shares {
		if err := e.Shares.Remount(ctx, realName, target, s); err != nil {
			return err
		}
	}

	return e.refreshDiscovery(ctx, realName, target)
}

// stop runs "running -> stopped" (spec §4.10, item 6): reverse rsync shares
// then stop the machine.
func (e *Engine) stop(ctx context.Context, m *types.Machine, realName string) error {
	target, err := e.resolveTarget(ctx, realName)
	if err == nil {
		for _, s := range m.Shares {
			if syncErr := e.Shares.SyncBack(ctx, target, s); syncErr != nil {
				return syncErr
			}
		}
	}
	if _, err := e.Adapter.Run(ctx, tooladapter.ToolDockerMachine, []string{"stop", realName}, nil); err != nil {
		return clustererr.WrapAdapter(err, "stop %s", realName)
	}
	return nil
}

// destroy runs "any -> destroyed" (spec §4.10, item 7): reverse rsync
// shares if running, then remove the machine.
func (e *Engine) destroy(ctx context.Context, m *types.Machine, realName string) error {
	if target, err := e.resolveTarget(ctx, realName); err == nil {
		for _, s := range m.Shares {
			_ = e.Shares.SyncBack(ctx, target, s)
		}
	}
	if _, err := e.Adapter.Run(ctx, tooladapter.ToolDockerMachine, []string{"rm", "-f", realName}, nil); err != nil {
		return clustererr.WrapAdapter(err, "destroy %s", realName)
	}
	return nil
}

// refreshDiscovery publishes realName's current interfaces into the
// discovery cache (spec §5(d): happens-after running, happens-before any
// substitution naming this machine).
func (e *Engine) refreshDiscovery(ctx context.Context, realName string, target sshtarget.Target) error {
	args := append(e.render(target), "ip", "-o", "-4", "addr", "show")
	res, err := e.Adapter.Run(ctx, tooladapter.ToolSSH, args, nil)
	if err != nil {
		return clustererr.WrapNetwork(err, "list interfaces on %s", realName)
	}

	rec := &types.Discovery{Machine: realName, MainInet4: target.Host}
	for _, line := range strings.Split(res.Stdout, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		ifname := strings.TrimSuffix(fields[1], ":")
		if ifname == "lo" {
			continue
		}
		addr := strings.SplitN(fields[3], "/", 2)[0]
		rec.Interfaces = append(rec.Interfaces, types.Interface{Name: ifname, Inet4: addr})
	}

	return e.Discovery.Update([]*types.Discovery{rec})
}
