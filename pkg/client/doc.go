// Package client is a thin HTTP client for the "server" command's REST
// surface (spec §6, pkg/httpapi): the CLI's "-url" remote mode sends the
// same verbs a local invocation would execute against a lifecycle.Engine,
// over HTTP instead, and decodes the {status, per_machine} JSON responses
// back into types.MachineResult. It carries no orchestration logic.
package client
