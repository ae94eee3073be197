package yamlmodel

import (
	"os"
	"strings"

	"github.com/cuemby/shipwright/pkg/clustererr"
	"github.com/cuemby/shipwright/pkg/types"
)

// decodeMachine converts a merged raw machine definition into a typed
// *types.Machine, applying the size/bool coercions from spec §4.1.
func decodeMachine(name string, raw map[string]interface{}) (*types.Machine, error) {
	m := &types.Machine{
		Name:   name,
		Hidden: strings.HasPrefix(name, ".") || strings.HasPrefix(name, "x-"),
		Swarm:  true,
	}

	if v, ok := raw["aliases"]; ok {
		m.Aliases = toStringSlice(v)
	}
	if v, ok := raw["driver"]; ok {
		m.Driver = toString(v)
	}
	if v, ok := raw["master"]; ok {
		b, err := parseBool(v)
		if err != nil {
			return nil, clustererr.WrapConfig(err, "machine %q: master", name)
		}
		m.Master = b
	}
	if v, ok := raw["swarm"]; ok {
		b, err := parseBool(v)
		if err != nil {
			return nil, clustererr.WrapConfig(err, "machine %q: swarm", name)
		}
		m.Swarm = b
	}
	if v, ok := raw["cpus"]; ok {
		n, err := toInt(v)
		if err != nil {
			return nil, clustererr.WrapConfig(err, "machine %q: cpus", name)
		}
		m.CPUs = n
	}
	if v, ok := raw["memory"]; ok {
		mb, err := parseMemoryMiB(v)
		if err != nil {
			return nil, clustererr.WrapConfig(err, "machine %q: memory", name)
		}
		m.MemoryMB = mb
	}
	if v, ok := raw["size"]; ok {
		mb, err := parseDiskMB(v)
		if err != nil {
			return nil, clustererr.WrapConfig(err, "machine %q: size", name)
		}
		m.DiskMB = mb
	}
	m.Labels = toStringMap(raw["labels"])
	if v, ok := raw["options"]; ok {
		if om, ok := v.(map[string]interface{}); ok {
			m.DriverOpts = om
		}
	}

	ports, err := decodePorts(raw["ports"])
	if err != nil {
		return nil, clustererr.WrapConfig(err, "machine %q: ports", name)
	}
	m.Ports = ports

	shares, err := decodeShares(raw["shares"], m.Driver)
	if err != nil {
		return nil, clustererr.WrapConfig(err, "machine %q: shares", name)
	}
	m.Shares = shares

	m.Images = toStringSlice(raw["images"])

	regs, err := decodeRegistries(raw["registries"])
	if err != nil {
		return nil, clustererr.WrapConfig(err, "machine %q: registries", name)
	}
	m.Registries = regs

	compose, err := decodeCompose(raw["compose"])
	if err != nil {
		return nil, clustererr.WrapConfig(err, "machine %q: compose", name)
	}
	m.Compose = compose

	m.Prelude, err = decodeScripts(raw["prelude"])
	if err != nil {
		return nil, clustererr.WrapConfig(err, "machine %q: prelude", name)
	}
	m.Addendum, err = decodeScripts(raw["addendum"])
	if err != nil {
		return nil, clustererr.WrapConfig(err, "machine %q: addendum", name)
	}

	m.Files, err = decodeFiles(raw["files"])
	if err != nil {
		return nil, clustererr.WrapConfig(err, "machine %q: files", name)
	}

	return m, nil
}

func toStringSlice(v interface{}) []string {
	list, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, e := range list {
		out = append(out, toString(e))
	}
	return out
}

func decodePorts(v interface{}) ([]types.PortForward, error) {
	list, ok := v.([]interface{})
	if !ok {
		return nil, nil
	}
	out := make([]types.PortForward, 0, len(list))
	for _, e := range list {
		m, ok := e.(map[string]interface{})
		if !ok {
			return nil, clustererr.ConfigError("port entry must be a mapping")
		}
		hp, err := toInt(m["hostPort"])
		if err != nil {
			return nil, err
		}
		gp, err := toInt(m["guestPort"])
		if err != nil {
			return nil, err
		}
		proto := "tcp"
		if p, ok := m["protocol"]; ok {
			proto = strings.ToLower(toString(p))
		}
		out = append(out, types.PortForward{HostPort: hp, GuestPort: gp, Protocol: proto})
	}
	return out, nil
}

func decodeShares(v interface{}, driver string) ([]types.Share, error) {
	list, ok := v.([]interface{})
	if !ok {
		return nil, nil
	}
	defaultType := types.ShareRsync
	if driver == "virtualbox" {
		defaultType = types.ShareVBoxSF
	}
	out := make([]types.Share, 0, len(list))
	for _, e := range list {
		m, ok := e.(map[string]interface{})
		if !ok {
			return nil, clustererr.ConfigError("share entry must be a mapping")
		}
		st := defaultType
		if t, ok := m["type"]; ok {
			st = types.ShareType(toString(t))
		}
		out = append(out, types.Share{
			// spec §4.6: expand the caller's environment in share paths
			// before anything downstream (vboxsf registration, rsync)
			// ever sees them.
			HostPath:  os.ExpandEnv(toString(m["hostPath"])),
			GuestPath: os.ExpandEnv(toString(m["guestPath"])),
			Type:      st,
		})
	}
	return out, nil
}

func decodeRegistries(v interface{}) ([]types.Registry, error) {
	list, ok := v.([]interface{})
	if !ok {
		return nil, nil
	}
	out := make([]types.Registry, 0, len(list))
	for _, e := range list {
		m, ok := e.(map[string]interface{})
		if !ok {
			return nil, clustererr.ConfigError("registry entry must be a mapping")
		}
		out = append(out, types.Registry{
			Server:   toString(m["server"]),
			Username: toString(m["username"]),
			Password: toString(m["password"]),
			Email:    toString(m["email"]),
		})
	}
	return out, nil
}

func decodeCompose(v interface{}) ([]types.ComposeEntry, error) {
	list, ok := v.([]interface{})
	if !ok {
		return nil, nil
	}
	out := make([]types.ComposeEntry, 0, len(list))
	for _, e := range list {
		switch t := e.(type) {
		case string:
			out = append(out, types.ComposeEntry{File: t})
		case map[string]interface{}:
			sub := false
			if s, ok := t["substitution"]; ok {
				b, err := parseBool(s)
				if err != nil {
					return nil, err
				}
				sub = b
			}
			out = append(out, types.ComposeEntry{
				File:         toString(t["file"]),
				Substitution: sub,
				Project:      toString(t["project"]),
			})
		default:
			return nil, clustererr.ConfigError("compose entry must be a string or mapping")
		}
	}
	return out, nil
}

func decodeScripts(v interface{}) ([]types.ScriptEntry, error) {
	list, ok := v.([]interface{})
	if !ok {
		return nil, nil
	}
	out := make([]types.ScriptEntry, 0, len(list))
	for _, e := range list {
		m, ok := e.(map[string]interface{})
		if !ok {
			return nil, clustererr.ConfigError("script entry must be a mapping")
		}
		entry := types.ScriptEntry{
			Exec: toString(m["exec"]),
			Args: toStringSlice(m["args"]),
		}
		if b, ok := m["sudo"]; ok {
			v, err := parseBool(b)
			if err != nil {
				return nil, err
			}
			entry.Sudo = v
		}
		if b, ok := m["remote"]; ok {
			v, err := parseBool(b)
			if err != nil {
				return nil, err
			}
			entry.Remote = v
		}
		if b, ok := m["copy"]; ok {
			v, err := parseBool(b)
			if err != nil {
				return nil, err
			}
			entry.Copy = v
		}
		entry.Substitution = decodeScope(m["substitution"])
		out = append(out, entry)
	}
	return out, nil
}

func decodeFiles(v interface{}) ([]types.FileEntry, error) {
	list, ok := v.([]interface{})
	if !ok {
		return nil, nil
	}
	out := make([]types.FileEntry, 0, len(list))
	for _, e := range list {
		m, ok := e.(map[string]interface{})
		if !ok {
			return nil, clustererr.ConfigError("file entry must be a mapping")
		}
		entry := types.FileEntry{
			Source:      toString(m["source"]),
			Destination: toString(m["destination"]),
			Recurse:     types.RecurseAuto,
			Mode:        toString(m["mode"]),
			Owner:       toString(m["owner"]),
			Group:       toString(m["group"]),
		}
		if r, ok := m["recurse"]; ok {
			entry.Recurse = types.RecurseMode(toString(r))
		}
		if d, ok := m["delta"]; ok {
			v, err := parseBool(d)
			if err != nil {
				return nil, err
			}
			entry.Delta = v
		}
		if s, ok := m["sudo"]; ok {
			v, err := parseBool(s)
			if err != nil {
				return nil, err
			}
			entry.Sudo = v
		}
		entry.Substitution = decodeScope(m["substitution"])
		out = append(out, entry)
	}
	return out, nil
}

// decodeScope decodes a "substitution:" field that may be a bare boolean
// (on/off -> both/none) or a scope descriptor mapping {scope, patterns}.
func decodeScope(v interface{}) types.SubstitutionScope {
	switch t := v.(type) {
	case nil:
		return types.SubstitutionScope{Scope: types.ScopeNone}
	case bool:
		if t {
			return types.SubstitutionScope{Scope: types.ScopeBoth}
		}
		return types.SubstitutionScope{Scope: types.ScopeNone}
	case string:
		b, err := parseBool(t)
		if err == nil {
			if b {
				return types.SubstitutionScope{Scope: types.ScopeBoth}
			}
			return types.SubstitutionScope{Scope: types.ScopeNone}
		}
		return types.SubstitutionScope{Scope: types.SubstitutionScopeKind(t)}
	case map[string]interface{}:
		scope := types.ScopeBoth
		if s, ok := t["scope"]; ok {
			scope = types.SubstitutionScopeKind(toString(s))
		}
		return types.SubstitutionScope{Scope: scope, Patterns: toStringSlice(t["patterns"])}
	default:
		return types.SubstitutionScope{Scope: types.ScopeNone}
	}
}

func decodeNetwork(name string, v interface{}) (*types.Network, error) {
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, clustererr.ConfigError("network %q: definition must be a mapping", name)
	}
	net := &types.Network{
		Name:    name,
		Driver:  toString(m["driver"]),
		Options: toStringMap(m["options"]),
	}
	if a, ok := m["attachable"]; ok {
		b, err := parseBool(a)
		if err != nil {
			return nil, clustererr.WrapConfig(err, "network %q: attachable", name)
		}
		net.Attachable = b
	}
	if e, ok := m["external"]; ok {
		b, err := parseBool(e)
		if err != nil {
			return nil, clustererr.WrapConfig(err, "network %q: external", name)
		}
		net.External = b
	}
	return net, nil
}
