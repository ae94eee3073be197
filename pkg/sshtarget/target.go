// Package sshtarget resolves the "-ssh TMPL" CLI flag (spec §6) and each
// machine's connection details into the argv fragments the Tool Adapter
// needs for ssh, scp, and rsync invocations.
package sshtarget

import (
	"fmt"
	"strconv"
	"strings"
)

// Target is one machine's SSH connection point.
type Target struct {
	User     string
	Host     string
	Identity string
	Port     int
}

// DefaultTemplate is used when -ssh is not supplied: a plain
// "ssh -i identity -p port user@host" invocation.
const DefaultTemplate = "ssh -i %identity% -p %port% %user%@%host%"

// Render expands tmpl's %user%/%host%/%identity%/%port% placeholders against
// t and splits the result into an argv, dropping the leading "ssh" token
// (the Tool Adapter already selects the binary).
func Render(tmpl string, t Target) []string {
	if tmpl == "" {
		tmpl = DefaultTemplate
	}
	port := strconv.Itoa(t.Port)
	if t.Port == 0 {
		port = "22"
	}
	replacer := strings.NewReplacer(
		"%user%", t.User,
		"%host%", t.Host,
		"%identity%", t.Identity,
		"%port%", port,
	)
	fields := strings.Fields(replacer.Replace(tmpl))
	if len(fields) > 0 && fields[0] == "ssh" {
		fields = fields[1:]
	}
	return fields
}

// SCPDestination formats a remote scp/rsync destination: "user@host:path".
func SCPDestination(t Target, path string) string {
	return fmt.Sprintf("%s@%s:%s", t.User, t.Host, path)
}
