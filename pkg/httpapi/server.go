package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/cuemby/shipwright/pkg/clustererr"
	"github.com/cuemby/shipwright/pkg/log"
	"github.com/cuemby/shipwright/pkg/metrics"
	"github.com/cuemby/shipwright/pkg/orchestrator"
	"github.com/cuemby/shipwright/pkg/types"
	"github.com/gorilla/mux"
)

// Server is the "server" command's HTTP/REST control surface (spec §6): a
// REST mapping onto the same Orchestrator operations the CLI drives. It
// carries no orchestration logic of its own.
type Server struct {
	Orchestrator *orchestrator.Orchestrator
	router       *mux.Router
}

// New builds a Server routed with gorilla/mux.
func New(o *orchestrator.Orchestrator) *Server {
	s := &Server{Orchestrator: o, router: mux.NewRouter()}
	s.routes()
	metrics.RegisterComponent("api", true, "")
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.HandleFunc("/cluster/up", s.instrument("cluster_up", s.handleUp)).Methods(http.MethodPost)
	s.router.HandleFunc("/cluster/destroy", s.instrument("cluster_destroy", s.handleDestroy)).Methods(http.MethodPost)
	s.router.HandleFunc("/cluster/halt", s.instrument("cluster_halt", s.handleHalt)).Methods(http.MethodPost)
	s.router.HandleFunc("/cluster/ls", s.instrument("cluster_ls", s.handleLs)).Methods(http.MethodGet)
	s.router.HandleFunc("/cluster/env", s.instrument("cluster_env", s.handleEnv)).Methods(http.MethodGet)
	s.router.HandleFunc("/swarm", s.instrument("swarm", s.handleSwarm)).Methods(http.MethodPost)
	s.router.HandleFunc("/stack", s.instrument("stack", s.handleStack)).Methods(http.MethodPost)
	s.router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	s.router.HandleFunc("/health", metrics.HealthHandler()).Methods(http.MethodGet)
	s.router.HandleFunc("/ready", metrics.ReadyHandler()).Methods(http.MethodGet)
	s.router.HandleFunc("/live", metrics.LivenessHandler()).Methods(http.MethodGet)
}

func (s *Server) instrument(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		timer := metrics.NewTimer()
		h(rec, r)
		metrics.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		timer.ObserveDurationVec(metrics.HTTPRequestDuration, route)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// patternRequest is the optional JSON body accepted by /cluster/up,
// /cluster/destroy, and /cluster/halt: {"patterns": [...]}.
type patternRequest struct {
	Patterns []string `json:"patterns"`
	Restrict []string `json:"restrict"`
}

// clusterResponse is the documented {status, per_machine} shape (spec §6).
type clusterResponse struct {
	Status     string                    `json:"status"`
	PerMachine map[string]machineOutcome `json:"per_machine"`
}

type machineOutcome struct {
	State string `json:"state"`
	Error string `json:"error,omitempty"`
}

func resultsToResponse(results []*types.MachineResult) clusterResponse {
	resp := clusterResponse{Status: "ok", PerMachine: map[string]machineOutcome{}}
	for _, r := range results {
		outcome := machineOutcome{State: string(r.ToState)}
		if r.Err != nil {
			outcome.Error = r.Err.Error()
			resp.Status = "partial_failure"
		}
		resp.PerMachine[r.Machine] = outcome
	}
	return resp
}

func (s *Server) handleUp(w http.ResponseWriter, r *http.Request) {
	req := decodePatternRequest(r)
	results, err := s.Orchestrator.Up(r.Context(), req.Patterns, req.Restrict)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resultsToResponse(results))
}

func (s *Server) handleDestroy(w http.ResponseWriter, r *http.Request) {
	req := decodePatternRequest(r)
	results := s.Orchestrator.Destroy(r.Context(), req.Patterns, req.Restrict)
	writeJSON(w, http.StatusOK, resultsToResponse(results))
}

func (s *Server) handleHalt(w http.ResponseWriter, r *http.Request) {
	req := decodePatternRequest(r)
	results := s.Orchestrator.Halt(r.Context(), req.Patterns, req.Restrict)
	writeJSON(w, http.StatusOK, resultsToResponse(results))
}

func (s *Server) handleLs(w http.ResponseWriter, r *http.Request) {
	summaries := s.Orchestrator.Ls(queryList(r, "pattern"), queryList(r, "restrict"))
	orchestrator.SortSummaries(summaries)
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleEnv(w http.ResponseWriter, r *http.Request) {
	env, err := s.Orchestrator.Env(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, env)
}

// handleSwarm and handleStack accept multipart Compose files (spec §6:
// "POST /swarm with multipart Compose files"). A "substitute" form value
// flags an uploaded file for substitution when it equals the file's name, or
// when it is non-empty and sits at the same position as the file.
func (s *Server) handleSwarm(w http.ResponseWriter, r *http.Request) {
	files, err := stageMultipart(r)
	if err != nil {
		writeError(w, err)
		return
	}
	defer cleanupStaged(files)

	master, err := s.Orchestrator.Swarm(r.Context(), queryList(r, "pattern"), files)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "master": master.Name})
}

func (s *Server) handleStack(w http.ResponseWriter, r *http.Request) {
	files, err := stageMultipart(r)
	if err != nil {
		writeError(w, err)
		return
	}
	defer cleanupStaged(files)

	name := r.URL.Query().Get("name")
	master, err := s.Orchestrator.Stack(r.Context(), queryList(r, "pattern"), files, name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "master": master.Name})
}

func decodePatternRequest(r *http.Request) patternRequest {
	var req patternRequest
	if r.Body == nil {
		return req
	}
	defer r.Body.Close()
	_ = json.NewDecoder(r.Body).Decode(&req)
	return req
}

func queryList(r *http.Request, key string) []string {
	return r.URL.Query()[key]
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithComponent("httpapi").Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if kind, ok := clustererr.KindOf(err); ok {
		switch kind {
		case clustererr.Config, clustererr.Auth:
			status = http.StatusBadRequest
		case clustererr.State:
			status = http.StatusConflict
		case clustererr.Cancel:
			status = 499
		}
	}
	writeJSON(w, status, map[string]string{"status": "error", "message": err.Error()})
}

// stageMultipart reads each uploaded compose file to a temp file and
// returns orchestrator.StackRequest entries pointing at them; the caller
// must call cleanupStaged when done.
func stageMultipart(r *http.Request) ([]orchestrator.StackRequest, error) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return nil, clustererr.ConfigError("parse multipart compose upload: %v", err)
	}
	files := r.MultipartForm.File["compose"]
	substitute := r.MultipartForm.Value["substitute"]
	substituteSet := map[string]bool{}
	for _, v := range substitute {
		substituteSet[v] = true
	}

	var out []orchestrator.StackRequest
	for i, fh := range files {
		src, err := fh.Open()
		if err != nil {
			return nil, clustererr.ConfigError("open uploaded compose file %s: %v", fh.Filename, err)
		}
		tmp, err := os.CreateTemp("", "shipwright-upload-*.yml")
		if err != nil {
			src.Close()
			return nil, clustererr.Internal("stage uploaded compose file: %v", err)
		}
		if _, err := io.Copy(tmp, src); err != nil {
			src.Close()
			tmp.Close()
			return nil, clustererr.Internal("write staged compose file: %v", err)
		}
		src.Close()
		tmp.Close()

		out = append(out, orchestrator.StackRequest{
			File:         tmp.Name(),
			Substitution: substituteSet[fh.Filename] || (i < len(substitute) && substitute[i] != ""),
		})
	}
	return out, nil
}

func cleanupStaged(files []orchestrator.StackRequest) {
	for _, f := range files {
		os.Remove(f.File)
	}
}
