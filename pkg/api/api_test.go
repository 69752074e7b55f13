package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/WalterStager/thaumcraft-research-solver/pkg/aspect"
	"github.com/WalterStager/thaumcraft-research-solver/pkg/errors"
	"github.com/WalterStager/thaumcraft-research-solver/pkg/history"
	"github.com/WalterStager/thaumcraft-research-solver/pkg/observability"
	"github.com/WalterStager/thaumcraft-research-solver/pkg/pipeline"
)

const tinyBoardJSON = `{"board": {"radius": 1, "placements": [
	{"q": -1, "r": 0, "aspect": "aer"},
	{"q": 1, "r": 0, "aspect": "aer"}
]}}`

type solveEnvelope struct {
	RunID string `json:"run_id"`
	pipeline.SolveResult
}

func newTestServer(t *testing.T) (*Server, *history.MemoryStore) {
	t.Helper()
	g, err := aspect.New(aspect.Spec{"lux": {"aer"}})
	if err != nil {
		t.Fatal(err)
	}
	logger := log.New(io.Discard)
	store := history.NewMemoryStore(10)
	s := New(Config{
		Runner:   pipeline.NewRunner(nil, nil, logger),
		Aspects:  g,
		History:  store,
		Defaults: pipeline.Options{MaxTimeSecs: 10, NumWorkers: 2},
		Logger:   logger,
	})
	return s, store
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return v
}

func expectError(t *testing.T, rec *httptest.ResponseRecorder, status int, code errors.Code) {
	t.Helper()
	if rec.Code != status {
		t.Errorf("status = %d, want %d (%s)", rec.Code, status, rec.Body.String())
	}
	if got := decodeBody[errorBody](t, rec); got.Code != code {
		t.Errorf("code = %s, want %s", got.Code, code)
	}
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /healthz = %d", rec.Code)
	}
	if id := rec.Header().Get(RequestIDHeader); uuid.Validate(id) != nil {
		t.Errorf("%s = %q, want a UUID", RequestIDHeader, id)
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "client-id")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); got != "client-id" {
		t.Errorf("%s = %q, want the client id echoed", RequestIDHeader, got)
	}
}

func TestGrid(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/v1/grid?radius=1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /v1/grid = %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody[gridBody](t, rec)
	if len(body.Nodes) != 7 || len(body.Edges) != 12 {
		t.Errorf("grid radius 1 = %d nodes, %d edges; want 7, 12", len(body.Nodes), len(body.Edges))
	}
	if !strings.Contains(rec.Body.String(), `"q":`) {
		t.Error("grid nodes should carry axial coordinates")
	}

	expectError(t, do(t, s, http.MethodGet, "/v1/grid?radius=20", ""), http.StatusBadRequest, errors.ErrCodeInvalidBoard)
	expectError(t, do(t, s, http.MethodGet, "/v1/grid?radius=big", ""), http.StatusBadRequest, errors.ErrCodeInvalidInput)
}

func TestAspects(t *testing.T) {
	s, _ := newTestServer(t)

	list := decodeBody[[]aspectBody](t, do(t, s, http.MethodGet, "/v1/aspects", ""))
	if len(list) != 2 || list[0].Name != "aer" || !list[0].Primal || list[1].Name != "lux" {
		t.Errorf("GET /v1/aspects = %+v", list)
	}

	rec := do(t, s, http.MethodGet, "/v1/aspects/lux", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /v1/aspects/lux = %d", rec.Code)
	}
	lux := decodeBody[aspectBody](t, rec)
	if lux.Cost != 2 || !reflect.DeepEqual(lux.Components, []string{"aer"}) || !reflect.DeepEqual(lux.Neighbors, []string{"aer"}) {
		t.Errorf("GET /v1/aspects/lux = %+v", lux)
	}

	expectError(t, do(t, s, http.MethodGet, "/v1/aspects/ignis", ""), http.StatusNotFound, errors.ErrCodeAspectNotFound)
}

func TestAspectPath(t *testing.T) {
	s, _ := newTestServer(t)

	p := decodeBody[pathBody](t, do(t, s, http.MethodGet, "/v1/aspects/path?from=aer&to=aer&steps=2", ""))
	if !p.Found || !reflect.DeepEqual(p.Path, []string{"aer", "lux", "aer"}) || p.Steps != 2 || p.Cost != 3 {
		t.Errorf("fixed-step path = %+v", p)
	}

	p = decodeBody[pathBody](t, do(t, s, http.MethodGet, "/v1/aspects/path?from=aer&to=lux", ""))
	if !reflect.DeepEqual(p.Path, []string{"aer", "lux"}) {
		t.Errorf("shortest path = %+v", p)
	}

	p = decodeBody[pathBody](t, do(t, s, http.MethodGet, "/v1/aspects/path?from=aer&to=lux&steps=2", ""))
	if p.Found || len(p.Path) != 0 {
		t.Errorf("impossible path = %+v, want not found", p)
	}

	expectError(t, do(t, s, http.MethodGet, "/v1/aspects/path?from=aer", ""), http.StatusBadRequest, errors.ErrCodeInvalidInput)
	expectError(t, do(t, s, http.MethodGet, "/v1/aspects/path?from=aer&to=lux&steps=-1", ""), http.StatusBadRequest, errors.ErrCodeInvalidInput)
	expectError(t, do(t, s, http.MethodGet, "/v1/aspects/path?from=aer&to=ignis", ""), http.StatusNotFound, errors.ErrCodeAspectNotFound)
}

func TestSolveAndRuns(t *testing.T) {
	s, store := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/v1/solve", tinyBoardJSON)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /v1/solve = %d: %s", rec.Code, rec.Body.String())
	}
	res := decodeBody[solveEnvelope](t, rec)
	if res.Board == nil || len(res.Board.Placements) != 3 {
		t.Errorf("solved board = %+v, want 3 placements", res.Board)
	}

	rec = do(t, s, http.MethodGet, "/v1/runs/"+res.RunID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /v1/runs/{id} = %d", rec.Code)
	}
	run := decodeBody[history.Run](t, rec)
	if run.Status != "ok" || run.Kind != history.KindSolve || run.Output == nil {
		t.Errorf("run = %+v", run)
	}

	runs := decodeBody[[]history.Run](t, do(t, s, http.MethodGet, "/v1/runs", ""))
	if len(runs) != 1 || store.Len() != 1 {
		t.Errorf("GET /v1/runs = %d runs, want 1", len(runs))
	}

	expectError(t, do(t, s, http.MethodGet, "/v1/runs/not-a-uuid", ""), http.StatusBadRequest, errors.ErrCodeInvalidInput)
	expectError(t, do(t, s, http.MethodGet, "/v1/runs/"+uuid.NewString(), ""), http.StatusNotFound, errors.ErrCodeNotFound)
}

func TestSolve_BadRequests(t *testing.T) {
	s, store := newTestServer(t)

	expectError(t, do(t, s, http.MethodPost, "/v1/solve", `{"board":`), http.StatusBadRequest, errors.ErrCodeInvalidInput)
	expectError(t, do(t, s, http.MethodPost, "/v1/solve", `{"boards": {}}`), http.StatusBadRequest, errors.ErrCodeInvalidInput)
	expectError(t, do(t, s, http.MethodPost, "/v1/solve", `{}`), http.StatusBadRequest, errors.ErrCodeInvalidInput)
	expectError(t, do(t, s, http.MethodPost, "/v1/solve",
		`{"board": {"radius": 1, "placements": [{"q": 0, "r": 0, "aspect": "ignis"}]}}`),
		http.StatusNotFound, errors.ErrCodeAspectNotFound)

	runs, _ := store.List(t.Context(), 0)
	if len(runs) != 2 || runs[0].Status != "error" || runs[0].Error == "" {
		t.Errorf("failed solves that reached the runner should be recorded, got %+v", runs)
	}
}

func TestExact(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/v1/exact", tinyBoardJSON)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /v1/exact = %d: %s", rec.Code, rec.Body.String())
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte(`"status":"optimal"`)) {
		t.Errorf("exact response lacks optimal status: %s", rec.Body.String())
	}

	expectError(t, do(t, s, http.MethodPost, "/v1/exact", `{"board": {"radius": 1, "placements": []}}`),
		http.StatusBadRequest, errors.ErrCodeInvalidInput)
}

func TestNotFoundAndMethod(t *testing.T) {
	s, _ := newTestServer(t)
	expectError(t, do(t, s, http.MethodGet, "/v2/nothing", ""), http.StatusNotFound, errors.ErrCodeNotFound)
	if rec := do(t, s, http.MethodGet, "/v1/solve", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /v1/solve = %d, want 405", rec.Code)
	}
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	hooks := observability.NewPrometheusHooks(reg)
	observability.SetHTTPHooks(hooks)
	observability.SetSolverHooks(hooks)
	t.Cleanup(observability.Reset)

	s, _ := newTestServer(t)
	s = New(Config{Runner: s.cfg.Runner, Aspects: s.cfg.Aspects, Gatherer: reg, Logger: s.cfg.Logger})

	do(t, s, http.MethodGet, "/healthz", "")
	do(t, s, http.MethodPost, "/v1/solve", tinyBoardJSON)

	rec := do(t, s, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /metrics = %d", rec.Code)
	}
	for _, want := range []string{
		`trsolver_http_requests_total{`,
		`route="/healthz"`,
		`route="/v1/solve"`,
		`trsolver_solves_total{`,
	} {
		if !strings.Contains(rec.Body.String(), want) {
			t.Errorf("/metrics missing %s", want)
		}
	}
}
