// Package types defines the cluster data model shared by every core
// component: the descriptor tree produced by the YAML model and merger, the
// discovery and token records persisted alongside it, and the plan the
// orchestrator builds for the machine lifecycle.
package types

import "time"

// Cluster is the fully resolved descriptor for one cluster.yml (or
// <name>.yml) file: its canonical name, version, and the machines and
// networks it declares after include/extends resolution.
type Cluster struct {
	// Name is the canonical cluster name: the descriptor's filename sans
	// extension, or empty when the descriptor is exactly "cluster.yml".
	Name string
	// Root is the descriptor's root name, used to derive the sidecar file
	// names (.<Root>.env, .<Root>.tkn, .<Root>.mch/).
	Root string
	// Dir is the absolute directory containing the descriptor.
	Dir string
	// Version is "1" (classic, top-level machines) or "2" (machines: +
	// networks:, Swarm Mode).
	Version string
	// Machines holds every non-hidden machine, sorted by name.
	Machines []*Machine
	// Hidden holds machines whose name starts with "." or "x-": merge
	// sources only, never materialised.
	Hidden []*Machine
	// Networks is only populated for Version == "2".
	Networks []*Network
}

// RealName returns the provider-visible name for a logical machine name:
// "<cluster-root>-<name>", unless the descriptor's root is "cluster", in
// which case the logical name is used unchanged.
func (c *Cluster) RealName(logical string) string {
	if c.Root == "cluster" {
		return logical
	}
	return c.Root + "-" + logical
}

// Machine is one entry in a cluster descriptor, after extends resolution.
type Machine struct {
	Name    string
	Aliases []string
	Driver  string
	Master  bool

	CPUs     int
	MemoryMB int64 // resolved to MiB, driver option units
	DiskMB   int64 // resolved to MB, driver option units

	Labels     map[string]string
	DriverOpts map[string]interface{} // string or []string values
	Ports      []PortForward
	Shares     []Share
	Images     []string
	Registries []Registry
	Compose    []ComposeEntry
	Prelude    []ScriptEntry
	Addendum   []ScriptEntry
	Files      []FileEntry

	// Swarm participates in swarm join/init unless explicitly false.
	Swarm bool

	// Extends names the parent(s) this machine was merged from. Populated
	// only transiently during resolution; the resolved Machine has no
	// remaining reference to it.
	Extends []string

	// Hidden is true for names beginning with "." or "x-": usable only as
	// an extends source, never materialised into a real machine.
	Hidden bool
}

// PortForward is a virtualbox-only host<->guest port mapping.
type PortForward struct {
	HostPort  int
	GuestPort int
	Protocol  string // "tcp" or "udp"
}

// ShareType selects the Share Manager backend for one share.
type ShareType string

const (
	ShareVBoxSF ShareType = "vboxsf"
	ShareRsync  ShareType = "rsync"
)

// Share is a host<->guest directory mount.
type Share struct {
	HostPath  string
	GuestPath string // must be absolute
	Type      ShareType
}

// Registry holds login credentials for one registry server.
type Registry struct {
	Server   string
	Username string
	Password string
	Email    string
}

// ComposeEntry names a compose file to linearise and bring up on a machine.
type ComposeEntry struct {
	File         string
	Substitution bool
	Project      string
}

// ScriptEntry is one prelude or addendum step.
type ScriptEntry struct {
	Exec         string
	Args         []string
	Sudo         bool
	Remote       bool
	Copy         bool
	Substitution SubstitutionScope
}

// FileEntry is one file-copy step.
type FileEntry struct {
	Source       string
	Destination  string // must be absolute
	Recurse      RecurseMode
	Delta        bool
	Sudo         bool
	Substitution SubstitutionScope
	Mode         string // optional chmod, e.g. "0644"
	Owner        string // optional chown
	Group        string // optional chgrp
}

// RecurseMode controls File Transfer directory handling.
type RecurseMode string

const (
	RecurseAuto RecurseMode = "auto"
	RecurseOn   RecurseMode = "on"
	RecurseOff  RecurseMode = "off"
)

// SubstitutionScope is the Environment Substitutor's scope descriptor (§4.3).
type SubstitutionScope struct {
	Scope    SubstitutionScopeKind
	Patterns []string
}

// SubstitutionScopeKind enumerates where a scope descriptor applies
// substitution: the text body, the argument vector, both, or neither.
type SubstitutionScopeKind string

const (
	ScopeText SubstitutionScopeKind = "text"
	ScopeArgs SubstitutionScopeKind = "args"
	ScopeBoth SubstitutionScopeKind = "both"
	ScopeNone SubstitutionScopeKind = "none"
)

// Network is a v2-only overlay network declared under "networks:".
type Network struct {
	Name       string
	Driver     string
	Options    map[string]string
	Attachable bool
	External   bool
}

// Interface is one network interface reported by a machine.
type Interface struct {
	Name  string
	Inet4 string
	Inet6 string
}

// Discovery is the per-machine record persisted in the discovery cache.
type Discovery struct {
	Machine    string // real machine name
	MainInet4  string
	Interfaces []Interface
}

// Token is the cluster's swarm join token.
type Token struct {
	Value     string
	CreatedAt time.Time
}

// MachineState is one node of the Machine Lifecycle state machine (§4.10).
type MachineState string

const (
	StateAbsent      MachineState = "absent"
	StateCreated     MachineState = "created"
	StateTagged      MachineState = "tagged"
	StateConfigured  MachineState = "configured"
	StateInitialised MachineState = "initialised"
	StateRunning     MachineState = "running"
	StateStopped     MachineState = "stopped"
	StateDestroyed   MachineState = "destroyed"
	StateFailed      MachineState = "failed"
)

// MachineResult is the outcome of driving one machine through the plan,
// reported in the end-of-run summary (§7).
type MachineResult struct {
	Machine   string
	FromState MachineState
	ToState   MachineState
	Err       error
	Attempts  int
}
