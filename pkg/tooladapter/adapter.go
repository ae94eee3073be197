// Package tooladapter invokes the external collaborators the core
// coordinates but does not implement: docker, docker-machine,
// docker-compose, VBoxManage, ssh, scp, rsync (spec §6). It is the only
// place in the core that knows process-argv quoting and output parsing, so
// tool-version drift never leaks into the lifecycle or orchestrator layers.
package tooladapter

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"strings"
	"syscall"
	"time"

	"github.com/cuemby/shipwright/pkg/clustererr"
	"github.com/cuemby/shipwright/pkg/log"
	"github.com/cuemby/shipwright/pkg/metrics"
)

// Tool names the external binaries the adapter dispatches to. Each has a
// default timeout per spec §5.
type Tool string

const (
	ToolDocker        Tool = "docker"
	ToolDockerMachine Tool = "docker-machine"
	ToolDockerCompose Tool = "docker-compose"
	ToolVBoxManage    Tool = "VBoxManage"
	ToolSSH           Tool = "ssh"
	ToolSCP           Tool = "scp"
	ToolRsync         Tool = "rsync"
	ToolIP            Tool = "ip"
)

// DefaultTimeout returns the per-call timeout from spec §5; callers may
// override it via context.WithTimeout for a specific invocation.
func DefaultTimeout(t Tool) time.Duration {
	switch t {
	case ToolSSH:
		return 5 * time.Minute
	case ToolDocker:
		return 30 * time.Minute
	case ToolDockerMachine:
		return 20 * time.Minute
	case ToolVBoxManage:
		return 60 * time.Second
	case ToolRsync:
		return 30 * time.Minute
	default:
		return 5 * time.Minute
	}
}

// LineCallback is invoked once per line of stdout/stderr from a streaming
// invocation.
type LineCallback func(line string, stderr bool)

// Result is the outcome of a single invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Paths overrides the binary path used for a subset of tools (the CLI's
// -machine/-docker flags, spec §6).
type Paths struct {
	Docker        string
	DockerMachine string
}

// Adapter runs external tools and normalises their exit conditions and log
// output into the core's vocabulary.
type Adapter struct {
	Paths Paths
	// killGrace is how long to wait between SIGTERM and SIGKILL on
	// cancellation (spec §5).
	killGrace time.Duration
}

// New creates an Adapter with the given binary path overrides.
func New(paths Paths) *Adapter {
	return &Adapter{Paths: paths, killGrace: 5 * time.Second}
}

func (a *Adapter) binary(tool Tool) string {
	switch tool {
	case ToolDocker:
		if a.Paths.Docker != "" {
			return a.Paths.Docker
		}
	case ToolDockerMachine:
		if a.Paths.DockerMachine != "" {
			return a.Paths.DockerMachine
		}
	}
	return string(tool)
}

// Run executes tool with args and stdin, waiting for completion or ctx
// cancellation, and returns its combined result. A non-zero exit produces an
// *clustererr.Error of kind Adapter.
func (a *Adapter) Run(ctx context.Context, tool Tool, args []string, stdin io.Reader) (*Result, error) {
	var stdout, stderr strings.Builder
	code, err := a.run(ctx, tool, args, stdin, func(line string, isErr bool) {
		if isErr {
			stderr.WriteString(line)
			stderr.WriteString("\n")
		} else {
			stdout.WriteString(line)
			stdout.WriteString("\n")
		}
	})
	res := &Result{Stdout: stdout.String(), Stderr: stderr.String(), ExitCode: code}
	if err != nil {
		return res, err
	}
	return res, nil
}

// RunStreaming executes tool with args, invoking cb for every line of
// stdout/stderr as it arrives, and returns only the exit outcome.
func (a *Adapter) RunStreaming(ctx context.Context, tool Tool, args []string, stdin io.Reader, cb LineCallback) (*Result, error) {
	code, err := a.run(ctx, tool, args, stdin, cb)
	return &Result{ExitCode: code}, err
}

// Spawn starts tool and returns immediately with the running process handle
// so the caller can pipe stdout onward (e.g. "docker save" into an ssh
// "docker load" pipeline in the Image Pre-seeder).
func (a *Adapter) Spawn(ctx context.Context, tool Tool, args []string) (*exec.Cmd, io.ReadCloser, error) {
	cmd := exec.CommandContext(ctx, a.binary(tool), args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, clustererr.WrapAdapter(err, "pipe stdout for %s", tool)
	}
	if err := cmd.Start(); err != nil {
		return nil, nil, clustererr.WrapAdapter(err, "spawn %s", tool)
	}
	return cmd, stdout, nil
}

func (a *Adapter) run(ctx context.Context, tool Tool, args []string, stdin io.Reader, cb LineCallback) (code int, err error) {
	timer := metrics.NewTimer()
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "failure"
		}
		metrics.AdapterCalls.WithLabelValues(string(tool), outcome).Inc()
		timer.ObserveDurationVec(metrics.AdapterCallDuration, string(tool))
	}()

	timeout := DefaultTimeout(tool)
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, a.binary(tool), args...)
	if stdin != nil {
		cmd.Stdin = stdin
	}

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return -1, clustererr.WrapAdapter(err, "pipe stdout for %s", tool)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return -1, clustererr.WrapAdapter(err, "pipe stderr for %s", tool)
	}

	log.WithComponent("tooladapter").Debug().Str("tool", string(tool)).Str("args", quoteArgs(args)).Msg("exec")

	if err := cmd.Start(); err != nil {
		return -1, clustererr.WrapAdapter(err, "%s not found or failed to start", tool)
	}

	done := make(chan struct{})
	go scanLines(stdoutPipe, false, cb)
	go scanLines(stderrPipe, true, cb)

	go func() {
		<-runCtx.Done()
		select {
		case <-done:
			return
		default:
		}
		if cmd.Process != nil {
			_ = cmd.Process.Signal(syscall.SIGTERM)
			timer := time.NewTimer(a.killGrace)
			defer timer.Stop()
			select {
			case <-done:
			case <-timer.C:
				_ = cmd.Process.Kill()
			}
		}
	}()

	waitErr := cmd.Wait()
	close(done)

	if ctx.Err() != nil {
		return -1, clustererr.ErrCancelled
	}
	if runCtx.Err() != nil {
		return -1, clustererr.WrapNetwork(runCtx.Err(), "%s timed out after %s", tool, timeout)
	}

	exitCode := 0
	if waitErr != nil {
		exitCode = exitCodeOf(waitErr)
		return exitCode, clustererr.WrapAdapter(waitErr, "%s exited %d", tool, exitCode)
	}
	return 0, nil
}

func scanLines(r io.Reader, isErr bool, cb LineCallback) {
	if cb == nil {
		_, _ = io.Copy(io.Discard, r)
		return
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		cb(normalizeLevel(scanner.Text()), isErr)
	}
}

// logrusLine matches the "level=info msg=..." lines docker-machine and
// docker-compose emit via logrus, so the adapter can fold them into the
// core's log levels instead of re-emitting them verbatim.
var logrusLine = regexp.MustCompile(`(?i)level=(\w+)`)

// normalizeLevel rewrites a logrus-style "level=xxx" line's level token into
// the core's {DEBUG, INFO, NOTICE, WARN, ERROR, FATAL} vocabulary, leaving
// the rest of the line untouched.
func normalizeLevel(line string) string {
	m := logrusLine.FindStringSubmatchIndex(line)
	if m == nil {
		return line
	}
	level := strings.ToLower(line[m[2]:m[3]])
	var mapped string
	switch level {
	case "debug", "trace":
		mapped = "DEBUG"
	case "info":
		mapped = "INFO"
	case "warn", "warning":
		mapped = "WARN"
	case "error":
		mapped = "ERROR"
	case "fatal", "panic":
		mapped = "FATAL"
	default:
		mapped = "NOTICE"
	}
	return line[:m[2]] + mapped + line[m[3]:]
}

// LogLine forwards one adapter line to the core logger, at Warn for stderr
// lines and Debug for stdout lines, tagging it with the originating tool.
func LogLine(tool Tool, line string, isErr bool) {
	l := log.WithComponent("tooladapter").With().Str("tool", string(tool)).Logger()
	if isErr {
		l.Warn().Msg(line)
		return
	}
	l.Debug().Msg(line)
}

func exitCodeOf(err error) int {
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode()
	}
	return -1
}

// quoteArgs renders an argv for diagnostic logging only; it is never used to
// build a shell command line (exec.Command always receives argv directly).
func quoteArgs(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		if strings.ContainsAny(a, " \t\"'") {
			quoted[i] = fmt.Sprintf("%q", a)
		} else {
			quoted[i] = a
		}
	}
	return strings.Join(quoted, " ")
}
