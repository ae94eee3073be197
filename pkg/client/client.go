package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cuemby/shipwright/pkg/clustererr"
	"github.com/cuemby/shipwright/pkg/orchestrator"
	"github.com/cuemby/shipwright/pkg/types"
)

// Client talks to a running "shipwright server" instance (spec §6).
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// New returns a Client targeting baseURL (e.g. "http://localhost:8080"),
// with a default 5-minute timeout matching the ssh-command default in
// spec §5.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 5 * time.Minute},
	}
}

// machineOutcome mirrors pkg/httpapi's unexported wire type.
type machineOutcome struct {
	State string `json:"state"`
	Error string `json:"error,omitempty"`
}

type clusterResponse struct {
	Status     string                    `json:"status"`
	PerMachine map[string]machineOutcome `json:"per_machine"`
}

func toResults(resp clusterResponse) []*types.MachineResult {
	out := make([]*types.MachineResult, 0, len(resp.PerMachine))
	for machine, outcome := range resp.PerMachine {
		r := &types.MachineResult{Machine: machine, ToState: types.MachineState(outcome.State)}
		if outcome.Error != "" {
			r.Err = clustererr.StateErr("%s", outcome.Error)
		}
		out = append(out, r)
	}
	return out
}

// Up calls POST /cluster/up.
func (c *Client) Up(ctx context.Context, patterns, restrict []string) ([]*types.MachineResult, error) {
	var resp clusterResponse
	if err := c.postJSON(ctx, "/cluster/up", patternRequest{Patterns: patterns, Restrict: restrict}, &resp); err != nil {
		return nil, err
	}
	return toResults(resp), nil
}

// Halt calls POST /cluster/halt.
func (c *Client) Halt(ctx context.Context, patterns, restrict []string) ([]*types.MachineResult, error) {
	var resp clusterResponse
	if err := c.postJSON(ctx, "/cluster/halt", patternRequest{Patterns: patterns, Restrict: restrict}, &resp); err != nil {
		return nil, err
	}
	return toResults(resp), nil
}

// Destroy calls POST /cluster/destroy.
func (c *Client) Destroy(ctx context.Context, patterns, restrict []string) ([]*types.MachineResult, error) {
	var resp clusterResponse
	if err := c.postJSON(ctx, "/cluster/destroy", patternRequest{Patterns: patterns, Restrict: restrict}, &resp); err != nil {
		return nil, err
	}
	return toResults(resp), nil
}

type patternRequest struct {
	Patterns []string `json:"patterns"`
	Restrict []string `json:"restrict"`
}

// Ls calls GET /cluster/ls.
func (c *Client) Ls(ctx context.Context, patterns, restrict []string) ([]orchestrator.MachineSummary, error) {
	q := url.Values{}
	for _, p := range patterns {
		q.Add("pattern", p)
	}
	for _, r := range restrict {
		q.Add("restrict", r)
	}
	var summaries []orchestrator.MachineSummary
	if err := c.getJSON(ctx, "/cluster/ls?"+q.Encode(), &summaries); err != nil {
		return nil, err
	}
	return summaries, nil
}

// Env calls GET /cluster/env.
func (c *Client) Env(ctx context.Context) (map[string]string, error) {
	var env map[string]string
	if err := c.getJSON(ctx, "/cluster/env", &env); err != nil {
		return nil, err
	}
	return env, nil
}

// Swarm calls POST /swarm, uploading each file in files (multipart), with
// substitute marking which of them should be substituted before forwarding.
func (c *Client) Swarm(ctx context.Context, patterns []string, files []string, substitute map[string]bool) (string, error) {
	return c.postCompose(ctx, "/swarm", patterns, files, substitute, "")
}

// Stack calls POST /stack?name=NAME.
func (c *Client) Stack(ctx context.Context, patterns []string, files []string, substitute map[string]bool, name string) (string, error) {
	return c.postCompose(ctx, "/stack", patterns, files, substitute, name)
}

func (c *Client) postCompose(ctx context.Context, path string, patterns []string, files []string, substitute map[string]bool, stackName string) (string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return "", clustererr.ConfigError("read compose file %s: %v", f, err)
		}
		part, err := writer.CreateFormFile("compose", filepath.Base(f))
		if err != nil {
			return "", clustererr.Internal("build multipart request: %v", err)
		}
		if _, err := part.Write(data); err != nil {
			return "", clustererr.Internal("write multipart request: %v", err)
		}
		// One "substitute" value per file keeps the server's positional
		// match aligned: the file's name when flagged, "" otherwise.
		value := ""
		if substitute[f] {
			value = filepath.Base(f)
		}
		_ = writer.WriteField("substitute", value)
	}
	if err := writer.Close(); err != nil {
		return "", clustererr.Internal("close multipart request: %v", err)
	}

	q := url.Values{}
	for _, p := range patterns {
		q.Add("pattern", p)
	}
	if stackName != "" {
		q.Set("name", stackName)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path+"?"+q.Encode(), body)
	if err != nil {
		return "", clustererr.Internal("build request: %v", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var resp struct {
		Status string `json:"status"`
		Master string `json:"master"`
	}
	if err := c.do(req, &resp); err != nil {
		return "", err
	}
	return resp.Master, nil
}

func (c *Client) postJSON(ctx context.Context, path string, reqBody, respBody interface{}) error {
	data, err := json.Marshal(reqBody)
	if err != nil {
		return clustererr.Internal("marshal request: %v", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(data))
	if err != nil {
		return clustererr.Internal("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, respBody)
}

func (c *Client) getJSON(ctx context.Context, path string, respBody interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return clustererr.Internal("build request: %v", err)
	}
	return c.do(req, respBody)
}

func (c *Client) do(req *http.Request, respBody interface{}) error {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return clustererr.WrapNetwork(err, "request to %s", req.URL)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(resp.Body)
		return clustererr.AdapterError("server returned %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}
	if respBody == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
		return clustererr.WrapConfig(err, "decode response from %s", req.URL)
	}
	return nil
}
