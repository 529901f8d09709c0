package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"fiddler/adapters/rng"
	"fiddler/domain/core"
	"fiddler/domain/params"
	"fiddler/domain/run"
	"fiddler/domain/trace"
	"fiddler/internal/analysis"
	"fiddler/internal/errors"
	"fiddler/internal/generator"
	"fiddler/ports"
)

const defaultRunsLimit = 20

// generateRequest is the body of /api/generate and /api/summary. Params are
// decoded over the defaults, so a body may name only the fields it changes.
type generateRequest struct {
	Params params.Parameters `json:"params"`
	Seed   *int64            `json:"seed,omitempty"`
	// ProgressKey, when set, publishes progress on /api/generate/events.
	ProgressKey string `json:"progress_key,omitempty"`
}

type generateResponse struct {
	Manifest *run.Manifest  `json:"manifest"`
	Archived bool           `json:"archived"`
	Records  []trace.Record `json:"records"`
}

type summaryResponse struct {
	Manifest *run.Manifest     `json:"manifest"`
	Summary  *analysis.Summary `json:"summary"`
}

func respondError(c *gin.Context, err error) {
	c.JSON(errors.HTTPStatus(err), gin.H{
		"error": err.Error(),
		"code":  errors.GetCode(err),
	})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "code_version": run.CodeVersion})
}

func (s *Server) defaultParams(c *gin.Context) {
	c.JSON(http.StatusOK, params.Default())
}

// execute decodes the request, generates and records the run. It writes the
// error response itself and returns ok=false on failure.
func (s *Server) execute(c *gin.Context) (*generator.Result, *run.Manifest, bool, bool) {
	req := generateRequest{Params: params.Default()}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.InvalidInput("invalid request body: "+err.Error()))
		return nil, nil, false, false
	}

	var streams ports.RNGPort
	if req.Seed != nil {
		streams = rng.NewSeeded(*req.Seed, s.logger)
	} else {
		streams = rng.NewRandom(true, s.logger)
	}

	genReq := generator.Request{Params: req.Params, RNG: streams}
	if req.ProgressKey != "" {
		genReq.Progress = broadcastProgress(s.hub, req.ProgressKey)
		genReq.CallbackEvery = progressEvery(req.Params.NTraces)
	}

	res, err := s.generator.Generate(c.Request.Context(), genReq)
	if req.ProgressKey != "" {
		finish(s.hub, req.ProgressKey, req.Params.NTraces, err)
	}
	if err != nil {
		respondError(c, errors.Wrap(err, "generation failed"))
		return nil, nil, false, false
	}

	manifest, err := run.NewManifest(req.Params, res.Seed, s.workers, res.Table)
	if err != nil {
		respondError(c, errors.Wrap(err, "building run manifest"))
		return nil, nil, false, false
	}

	archived := false
	if s.archive != nil {
		if err := s.archive.Save(c.Request.Context(), manifest); err != nil {
			s.logger.Warn("run %s not archived: %v", manifest.RunID, err)
		} else {
			archived = true
		}
	}
	return res, manifest, archived, true
}

func (s *Server) generate(c *gin.Context) {
	res, manifest, archived, ok := s.execute(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, generateResponse{
		Manifest: manifest,
		Archived: archived,
		Records:  res.Table.Records(),
	})
}

func (s *Server) summary(c *gin.Context) {
	res, manifest, _, ok := s.execute(c)
	if !ok {
		return
	}
	sum, err := analysis.Summarize(res.Table)
	if err != nil {
		respondError(c, errors.Wrap(err, "summarising table"))
		return
	}
	c.JSON(http.StatusOK, summaryResponse{Manifest: manifest, Summary: sum})
}

func (s *Server) listRuns(c *gin.Context) {
	if s.archive == nil {
		respondError(c, errors.NotFound("run archive"))
		return
	}

	limit := defaultRunsLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(c, errors.InvalidInput("limit must be a positive integer"))
			return
		}
		limit = n
	}

	runs, err := s.archive.List(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	if runs == nil {
		runs = []*run.Manifest{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (s *Server) getRun(c *gin.Context) {
	if s.archive == nil {
		respondError(c, errors.NotFound("run archive"))
		return
	}
	id, err := core.ParseRunID(c.Param("id"))
	if err != nil {
		respondError(c, errors.InvalidInput(err.Error()))
		return
	}
	m, err := s.archive.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}
