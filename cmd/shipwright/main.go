package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cuemby/shipwright/pkg/log"
	"github.com/spf13/cobra"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		os.Exit(0)
	}

	if ctx.Err() != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(130)
	}
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", exitErr.err)
		os.Exit(exitErr.code)
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

var rootCmd = &cobra.Command{
	Use:   "shipwright",
	Short: "shipwright - cluster lifecycle controller for docker-machine/swarm/compose",
	Long: `shipwright drives a fleet of docker-machine hosts through a
declarative cluster descriptor: bringing machines up in master-first
order, bootstrapping swarm join tokens, linearising and forwarding
compose/stack files, and keeping a discovery cache of each machine's
network addresses for cross-machine substitution.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"shipwright version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("machine", "", "path to the docker-machine binary override")
	rootCmd.PersistentFlags().String("docker", "", "path to the docker binary override")
	rootCmd.PersistentFlags().String("token", "", "swarm join token override")
	rootCmd.PersistentFlags().String("cluster", "", "path to the cluster descriptor (default: discovered, see §6)")
	rootCmd.PersistentFlags().String("driver", "", "docker-machine driver override")
	rootCmd.PersistentFlags().String("cache", "", "image pre-seed cache policy: machine name, \"-\" (local-host), or empty (off)")
	rootCmd.PersistentFlags().String("ssh", "", "ssh command template, e.g. \"ssh -i %identity% -p %port% %user%@%host%\"")
	rootCmd.PersistentFlags().String("config", "", "path to a config file overlay for the flags above")
	rootCmd.PersistentFlags().String("storage", "", "path to the docker-machine storage directory override")
	rootCmd.PersistentFlags().String("verbose", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("restrict", "", "comma-separated glob patterns narrowing the machine selection")
	rootCmd.PersistentFlags().String("url", "", "base URL of a running \"shipwright server\" to drive remotely instead of operating locally")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(upCmd)
	rootCmd.AddCommand(haltCmd)
	rootCmd.AddCommand(destroyCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(swarmCmd)
	rootCmd.AddCommand(stackCmd)
	rootCmd.AddCommand(nodeCmd)
	rootCmd.AddCommand(envCmd)
	rootCmd.AddCommand(sshCmd)
	rootCmd.AddCommand(psCmd)
	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(forallCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(composeCmd)
	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(versionCmd)
}

func initLogging() {
	level, _ := rootCmd.PersistentFlags().GetString("verbose")
	log.Init(log.Config{Level: log.Level(level)})
}
