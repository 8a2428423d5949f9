package server

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"strconv"

	"github.com/matzehuels/lanegraph/pkg/buildinfo"
	"github.com/matzehuels/lanegraph/pkg/errors"
	"github.com/matzehuels/lanegraph/pkg/pipeline"
)

// Response headers describing how a result was produced.
const (
	HeaderCache   = "X-Cache"
	HeaderCommits = "X-Commit-Count"
	HeaderLanes   = "X-Lane-Count"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

// handleLayout answers with the layout JSON of the posted commit list.
//
// Query parameters: lane_limit, primitives, width, row_height.
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	opts, err := s.options(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts.VizType = pipeline.VizTypeLanes
	opts.Formats = []string{pipeline.FormatJSON}
	s.execute(w, r, opts)
}

// handleRender answers with one rendered format of the posted commit list.
//
// Query parameters: format (default svg), type, lane_limit, width,
// row_height, labels, detailed.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	opts, err := s.options(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	format := q.Get("format")
	if format == "" {
		format = pipeline.FormatSVG
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		s.writeError(w, r, err)
		return
	}
	opts.Formats = []string{format}
	if t := q.Get("type"); t != "" {
		opts.VizType = t
	}
	s.execute(w, r, opts)
}

// options reads the body and query into pipeline options seeded from the
// server configuration.
func (s *Server) options(w http.ResponseWriter, r *http.Request) (pipeline.Options, error) {
	cfg := s.cfg
	opts := pipeline.Options{
		VisibleLaneLimit: cfg.Layout.VisibleLaneLimit,
		RowHeight:        cfg.Render.RowHeight,
		Width:            cfg.Render.Width,
		Labels:           cfg.Render.Labels,
		Geometry:         cfg.Geometry,
		Palette:          cfg.Render.Palette,
		Logger:           s.logger.With("request_id", RequestID(r.Context())),
	}

	body := r.Body
	if cfg.Server.MaxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, cfg.Server.MaxBodyBytes)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return opts, err
		}
		return opts, errors.Wrap(errors.ErrCodeInvalidInput, err, "read request body")
	}
	if len(data) == 0 {
		return opts, errors.New(errors.ErrCodeInvalidInput, "request body is empty")
	}
	opts.Input = data

	q := query{values: r.URL.Query()}
	q.int("lane_limit", &opts.VisibleLaneLimit)
	q.float("width", &opts.Width)
	q.float("row_height", &opts.RowHeight)
	q.bool("labels", &opts.Labels)
	q.bool("detailed", &opts.Detailed)
	q.bool("primitives", &opts.Primitives)
	return opts, q.err
}

// execute runs the pipeline and writes the single requested artifact.
func (s *Server) execute(w http.ResponseWriter, r *http.Request, opts pipeline.Options) {
	ctx := r.Context()
	result, err := s.runner.Execute(ctx, opts)
	if err != nil {
		if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = errors.Wrap(errors.ErrCodeTimeout, err, "request timed out")
		}
		s.writeError(w, r, err)
		return
	}

	format := opts.Formats[0]
	data, ok := result.Artifacts[format]
	if !ok {
		s.writeError(w, r, errors.New(errors.ErrCodeInternal, "no %s output produced", format))
		return
	}

	h := w.Header()
	h.Set("Content-Type", pipeline.ContentType(format))
	h.Set(HeaderCache, cacheStatus(result.CacheInfo, format == pipeline.FormatJSON))
	h.Set(HeaderCommits, strconv.Itoa(result.Stats.Commits))
	h.Set(HeaderLanes, strconv.Itoa(result.Stats.MaxLanes))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func cacheStatus(info pipeline.CacheInfo, layoutOnly bool) string {
	hit := info.RenderHit
	if layoutOnly {
		hit = hit || info.LayoutHit
	}
	if hit {
		return "HIT"
	}
	return "MISS"
}

// query parses typed query parameters, keeping the first error.
type query struct {
	values map[string][]string
	err    error
}

func (q *query) get(name string) (string, bool) {
	v := q.values[name]
	if len(v) == 0 || v[0] == "" || q.err != nil {
		return "", false
	}
	return v[0], true
}

func (q *query) int(name string, dst *int) {
	if s, ok := q.get(name); ok {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			q.err = errors.New(errors.ErrCodeInvalidInput, "invalid %s: %q", name, s)
			return
		}
		*dst = n
	}
}

func (q *query) float(name string, dst *float64) {
	if s, ok := q.get(name); ok {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || f < 0 {
			q.err = errors.New(errors.ErrCodeInvalidInput, "invalid %s: %q", name, s)
			return
		}
		*dst = f
	}
}

func (q *query) bool(name string, dst *bool) {
	if s, ok := q.get(name); ok {
		b, err := strconv.ParseBool(s)
		if err != nil {
			q.err = errors.New(errors.ErrCodeInvalidInput, "invalid %s: %q", name, s)
			return
		}
		*dst = b
	}
}
