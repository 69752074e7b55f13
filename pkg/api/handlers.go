package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/WalterStager/thaumcraft-research-solver/pkg/buildinfo"
	"github.com/WalterStager/thaumcraft-research-solver/pkg/errors"
	"github.com/WalterStager/thaumcraft-research-solver/pkg/hexgrid"
	"github.com/WalterStager/thaumcraft-research-solver/pkg/history"
	"github.com/WalterStager/thaumcraft-research-solver/pkg/pipeline"
)

// DefaultRadius is used by /v1/grid without a radius parameter.
const DefaultRadius = 3

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": buildinfo.Version,
		"aspects": s.cfg.Aspects.Len(),
	})
}

// =============================================================================
// Grid
// =============================================================================

type gridNode struct {
	ID hexgrid.NodeID `json:"id"`
	hexgrid.Coord
	Neighbors []hexgrid.NodeID `json:"neighbors"`
}

type gridBody struct {
	Radius int                 `json:"radius"`
	Nodes  []gridNode          `json:"nodes"`
	Edges  [][2]hexgrid.NodeID `json:"edges"`
}

func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	radius, err := queryInt(r, "radius", DefaultRadius)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := errors.ValidateRadius(radius); err != nil {
		writeError(w, err)
		return
	}
	g, err := hexgrid.New(radius)
	if err != nil {
		writeError(w, err)
		return
	}
	body := gridBody{Radius: radius, Edges: g.Edges()}
	for _, id := range g.AllNodes() {
		c, _ := g.Coord(id)
		nb, _ := g.Neighbors(id)
		body.Nodes = append(body.Nodes, gridNode{ID: id, Coord: c, Neighbors: nb})
	}
	writeJSON(w, http.StatusOK, body)
}

// =============================================================================
// Aspects
// =============================================================================

type aspectBody struct {
	Name       string   `json:"name"`
	Cost       int      `json:"cost"`
	Primal     bool     `json:"primal"`
	Components []string `json:"components"`
	Parents    []string `json:"parents,omitempty"`
	Neighbors  []string `json:"neighbors,omitempty"`
}

func (s *Server) describe(name string, detailed bool) (aspectBody, error) {
	g := s.cfg.Aspects
	cost, err := g.Cost(name)
	if err != nil {
		return aspectBody{}, err
	}
	comps, _ := g.Components(name)
	b := aspectBody{Name: name, Cost: cost, Primal: g.IsPrimal(name), Components: comps}
	if b.Components == nil {
		b.Components = []string{}
	}
	if detailed {
		b.Parents, _ = g.Parents(name)
		b.Neighbors, _ = g.Neighbors(name)
	}
	return b, nil
}

func (s *Server) handleAspects(w http.ResponseWriter, r *http.Request) {
	names := s.cfg.Aspects.Aspects()
	out := make([]aspectBody, 0, len(names))
	for _, name := range names {
		b, err := s.describe(name, false)
		if err != nil {
			writeError(w, err)
			return
		}
		out = append(out, b)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAspect(w http.ResponseWriter, r *http.Request) {
	b, err := s.describe(chi.URLParam(r, "name"), true)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

type pathBody struct {
	From  string   `json:"from"`
	To    string   `json:"to"`
	Found bool     `json:"found"`
	Path  []string `json:"path"`
	Steps int      `json:"steps"`
	Cost  int      `json:"cost"`
}

func (s *Server) handleAspectPath(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to := q.Get("from"), q.Get("to")
	if from == "" || to == "" {
		writeError(w, errInvalid("from and to are required"))
		return
	}

	g := s.cfg.Aspects
	var path []string
	var err error
	if q.Has("steps") {
		steps, serr := queryInt(r, "steps", 0)
		if serr != nil || steps < 0 {
			writeError(w, errInvalid("steps must be a non-negative integer"))
			return
		}
		path, err = g.FixedStepPath(from, to, steps)
	} else {
		path, err = g.ShortestCostPath(from, to)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	body := pathBody{From: from, To: to, Path: path, Found: len(path) > 0}
	if body.Found {
		body.Steps = len(path) - 1
		if body.Cost, err = g.PathCost(path); err != nil {
			writeError(w, err)
			return
		}
	} else {
		body.Path = []string{}
	}
	writeJSON(w, http.StatusOK, body)
}

// =============================================================================
// Solves
// =============================================================================

type solveResponse struct {
	RunID string `json:"run_id"`
	*pipeline.SolveResult
}

type exactResponse struct {
	RunID string `json:"run_id"`
	*pipeline.ExactResult
}

// applyDefaults fills zero request fields from the server defaults.
func (s *Server) applyDefaults(opts *pipeline.Options) {
	d := s.cfg.Defaults
	if opts.Strategy == "" {
		opts.Strategy = d.Strategy
	}
	if opts.Mode == "" {
		opts.Mode = d.Mode
	}
	if opts.Seed == 0 {
		opts.Seed = d.Seed
	}
	if opts.MaxTimeSecs == 0 {
		opts.MaxTimeSecs = d.MaxTimeSecs
	}
	if opts.NumWorkers == 0 {
		opts.NumWorkers = d.NumWorkers
	}
	opts.Aspects = s.cfg.Aspects
}

func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	var opts pipeline.Options
	if err := decode(r, &opts); err != nil {
		writeError(w, err)
		return
	}
	s.applyDefaults(&opts)

	run := history.NewRun(history.KindSolve, opts.Board)
	res, err := s.cfg.Runner.Solve(r.Context(), opts)
	if err != nil {
		run.Status, run.Error = "error", errors.UserMessage(err)
		s.record(r.Context(), run)
		writeError(w, err)
		return
	}
	run.Status = "ok"
	run.Output = res.Board
	run.Duration = res.Stats.Duration
	run.Cost = float64(res.Report.Cost())
	run.CacheHit = res.CacheHit
	s.record(r.Context(), run)

	writeJSON(w, http.StatusOK, solveResponse{RunID: run.ID, SolveResult: res})
}

func (s *Server) handleExact(w http.ResponseWriter, r *http.Request) {
	var opts pipeline.Options
	if err := decode(r, &opts); err != nil {
		writeError(w, err)
		return
	}
	s.applyDefaults(&opts)
	if !opts.AllowStacking {
		opts.AllowStacking = s.cfg.Defaults.AllowStacking
	}

	run := history.NewRun(history.KindExact, opts.Board)
	res, err := s.cfg.Runner.Exact(r.Context(), opts)
	if err != nil {
		run.Status, run.Error = "error", errors.UserMessage(err)
		s.record(r.Context(), run)
		writeError(w, err)
		return
	}
	run.Status = res.Result.Status.String()
	run.Output = res.Board
	run.Duration = res.Stats.Duration
	run.Cost = res.Result.Objective
	run.CacheHit = res.CacheHit
	s.record(r.Context(), run)

	writeJSON(w, http.StatusOK, exactResponse{RunID: run.ID, ExactResult: res})
}

// record saves run on a context that outlives the request.
func (s *Server) record(ctx context.Context, run *history.Run) {
	if err := s.cfg.History.Save(context.WithoutCancel(ctx), run); err != nil {
		s.cfg.Logger.Warn("history save failed", "run", run.ID, "err", err)
	}
}

// =============================================================================
// Runs
// =============================================================================

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 20)
	if err != nil {
		writeError(w, err)
		return
	}
	runs, err := s.cfg.History.List(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if runs == nil {
		runs = []*history.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !history.ValidID(id) {
		writeError(w, errInvalid("run id %q is not a UUID", id))
		return
	}
	run, err := s.cfg.History.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}
