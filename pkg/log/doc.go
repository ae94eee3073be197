/*
Package log provides structured logging for the cluster engine using zerolog.

A single global Logger is configured once via Init and then narrowed into
component-specific child loggers (WithComponent, WithCluster, WithMachine) as
work descends into a particular subsystem or machine. The Tool Adapter
layer further maps external-tool log levels (logrus-style "level=info"
lines from docker-machine and friends) onto this package's vocabulary
before they are emitted.

# Usage

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true, Output: os.Stdout})

	machineLog := log.WithMachine("mycluster-master")
	machineLog.Info().Str("state", "running").Msg("machine transitioned")

	log.Logger.Error().Err(err).Str("cluster", "mycluster").Msg("up failed")

# Log levels

Debug, Info, Warn, Error, Fatal map directly onto zerolog's levels. This
package has no NOTICE level, since zerolog has no native Notice severity;
the Tool Adapter rewrites unrecognised external-tool level tags to the text
"NOTICE" inside the forwarded line.
*/
package log
