package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cuemby/shipwright/pkg/client"
	"github.com/cuemby/shipwright/pkg/clustererr"
	"github.com/cuemby/shipwright/pkg/config"
	"github.com/cuemby/shipwright/pkg/lifecycle"
	"github.com/cuemby/shipwright/pkg/metrics"
	"github.com/cuemby/shipwright/pkg/orchestrator"
	"github.com/cuemby/shipwright/pkg/preseed"
	"github.com/cuemby/shipwright/pkg/tooladapter"
	"github.com/cuemby/shipwright/pkg/types"
	"github.com/cuemby/shipwright/pkg/yamlmodel"
	"github.com/spf13/cobra"
)

// remoteClient returns a client for "-url" remote mode when that flag is
// set, so verb commands (up/halt/destroy/ls/env/swarm/stack) can drive a
// running "shipwright server" instead of building a local Engine.
func remoteClient(cmd *cobra.Command) *client.Client {
	url, _ := cmd.Flags().GetString("url")
	if url == "" {
		return nil
	}
	return client.New(url)
}

// globalFlags is the merged view of the persistent CLI flags and the
// "-config PATH" file overlay (spec §6): flag values win, file values fill
// in whatever is left blank.
type globalFlags struct {
	Machine string
	Docker  string
	Token   string
	Cluster string
	Driver  string
	Cache   string
	SSH     string
	Storage string
	Verbose string
	URL     string
}

func readGlobalFlags(cmd *cobra.Command) (*globalFlags, error) {
	flags := cmd.Flags()
	get := func(name string) string {
		v, _ := flags.GetString(name)
		return v
	}

	configPath := get("config")
	fileCfg, err := config.Load(configPath)
	if err != nil {
		return nil, userError(err)
	}

	return &globalFlags{
		Machine: config.Merge(get("machine"), fileCfg.Machine),
		Docker:  config.Merge(get("docker"), fileCfg.Docker),
		Token:   config.Merge(get("token"), fileCfg.Token),
		Cluster: config.Merge(get("cluster"), fileCfg.Cluster),
		Driver:  config.Merge(get("driver"), fileCfg.Driver),
		Cache:   config.Merge(get("cache"), fileCfg.Cache),
		SSH:     config.Merge(get("ssh"), fileCfg.SSH),
		Storage: config.Merge(get("storage"), fileCfg.Storage),
		Verbose: config.Merge(get("verbose"), fileCfg.Verbose),
		URL:     get("url"),
	}, nil
}

// discoverDescriptor implements spec §6's descriptor discovery: explicit
// "-cluster" wins; else "cluster.yml" in cwd; else the unique "*.yml" whose
// first non-empty line is exactly "#docker-machinery".
func discoverDescriptor(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if _, err := os.Stat("cluster.yml"); err == nil {
		return "cluster.yml", nil
	}

	matches, err := filepath.Glob("*.yml")
	if err != nil {
		return "", clustererr.Internal("glob cwd for descriptors: %v", err)
	}
	var candidates []string
	for _, m := range matches {
		if hasDockerMachineryMarker(m) {
			candidates = append(candidates, m)
		}
	}
	switch len(candidates) {
	case 0:
		return "", clustererr.ConfigError("no cluster descriptor found: pass -cluster, add cluster.yml, or mark one *.yml with a first line of \"#docker-machinery\"")
	case 1:
		return candidates[0], nil
	default:
		return "", clustererr.ConfigError("ambiguous cluster descriptor: %s all carry the #docker-machinery marker", strings.Join(candidates, ", "))
	}
}

func hasDockerMachineryMarker(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	for _, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		return trimmed == "#docker-machinery"
	}
	return false
}

// cachePolicyOf maps the "-cache VAL" flag onto a preseed.CachePolicy per
// spec §6: "machine-name | \"-\" | empty".
func cachePolicyOf(val string) (preseed.CachePolicy, string) {
	switch val {
	case "":
		return preseed.CacheOff, ""
	case "-":
		return preseed.CacheLocalHost, ""
	default:
		return preseed.CacheNamed, val
	}
}

// setup resolves the descriptor, parses the cluster, and builds an Engine +
// Orchestrator wired from the merged global flags.
func setup(cmd *cobra.Command) (*types.Cluster, *orchestrator.Orchestrator, *lifecycle.Engine, error) {
	flags, err := readGlobalFlags(cmd)
	if err != nil {
		return nil, nil, nil, err
	}

	descriptorPath, err := discoverDescriptor(flags.Cluster)
	if err != nil {
		return nil, nil, nil, userError(err)
	}

	cluster, err := yamlmodel.ParseCluster(descriptorPath)
	if err != nil {
		return nil, nil, nil, userError(err)
	}

	adapter := tooladapter.New(tooladapter.Paths{Docker: flags.Docker, DockerMachine: flags.Machine})
	metrics.RegisterComponent("tooladapter", true, "")

	engine, err := lifecycle.New(cluster.Dir, cluster.Root, adapter)
	if err != nil {
		metrics.RegisterComponent("checkpoint", false, err.Error())
		return nil, nil, nil, fatalError(err)
	}
	metrics.RegisterComponent("checkpoint", true, "")
	engine.SSHTemplate = flags.SSH
	engine.CachePolicy, engine.CacheMachine = cachePolicyOf(flags.Cache)

	return cluster, orchestrator.New(cluster, engine), engine, nil
}

// restrictPatterns splits the "-restrict" flag's comma-separated globs.
func restrictPatterns(cmd *cobra.Command) []string {
	raw, _ := cmd.Flags().GetString("restrict")
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// printSummary prints the end-of-run per-machine summary (spec §7) and
// returns a partialFailure error if any machine's result carries an error.
func printSummary(results []*types.MachineResult) error {
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Printf("✗ %s: %s -> %s: %v\n", r.Machine, r.FromState, r.ToState, r.Err)
		} else {
			fmt.Printf("✓ %s: %s -> %s\n", r.Machine, r.FromState, r.ToState)
		}
	}
	if failed > 0 {
		return partialFailure(fmt.Errorf("%d of %d machines failed", failed, len(results)))
	}
	return nil
}
