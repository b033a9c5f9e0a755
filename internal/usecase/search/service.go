// Package search is the query orchestrator: it composes the constraint
// and aggregation builders into one backend query, executes it, and
// shapes the raw response into the public contract.
package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/MasterOfNone69/hhypermap-bop/internal/domain"
	"github.com/MasterOfNone69/hhypermap-bop/internal/domain/search/request"
	"github.com/MasterOfNone69/hhypermap-bop/internal/domain/search/response"
	"github.com/MasterOfNone69/hhypermap-bop/internal/solr"
)

// DefaultExportPageSize bounds how many documents one export page pulls
// from the backend.
const DefaultExportPageSize = 1000

// Service orchestrates search and export against a shared backend handle.
// It holds no per-request state; every call builds its query fresh.
type Service struct {
	backend                Backend
	schema                 solr.Schema
	logger                 *zap.Logger
	exportPageSize         int
	textFacetExcludesQuery bool
	now                    func() time.Time
}

// New creates a search service.
func New(backend Backend, schema solr.Schema, logger *zap.Logger) *Service {
	return &Service{
		backend:                backend,
		schema:                 schema,
		logger:                 logger,
		exportPageSize:         DefaultExportPageSize,
		textFacetExcludesQuery: true,
		now:                    time.Now,
	}
}

// WithExportPageSize overrides the export page size.
func (s *Service) WithExportPageSize(n int) *Service {
	if n > 0 {
		s.exportPageSize = n
	}
	return s
}

// WithTextFacetFiltered makes the text facet count under the text filter
// instead of excluding it.
func (s *Service) WithTextFacetFiltered() *Service {
	s.textFacetExcludesQuery = false
	return s
}

// WithClock overrides the time source. Tests use this to pin "now".
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Search executes one backend query for the request and shapes the result.
func (s *Service) Search(ctx context.Context, req *request.Request) (*response.Response, error) {
	frag, err := s.buildQuery(req)
	if err != nil {
		return nil, err
	}

	params := frag.Params()
	params.Set("wt", "json")
	params.Set("echoParams", "all")
	params.Set("debug", "timing")

	s.logNotes(frag)

	raw, err := s.backend.Select(ctx, params)
	if err != nil {
		return nil, translateBackendError(err)
	}

	return s.shape(req, raw), nil
}

// buildQuery merges the constraint and aggregation fragments.
func (s *Service) buildQuery(req *request.Request) (solr.Fragment, error) {
	base := s.buildConstraints(req)
	docs := s.buildDocs(req)

	timeFrag, err := s.buildTimeFacet(req, s.now().UTC(), base.Selective())
	if err != nil {
		return solr.Fragment{}, err
	}
	hmFrag, err := s.buildHeatmapFacet(req)
	if err != nil {
		return solr.Fragment{}, err
	}
	fields := s.buildFieldFacets(req)

	merged := solr.Merge(base, docs, timeFrag, hmFrag, fields)
	for _, key := range []string{"facet.range", "facet.heatmap", "facet.field"} {
		if len(merged.Values(key)) > 0 {
			merged = merged.With("facet", "true")
			if base.Selective() {
				// A selective constraint set hints the whole request toward
				// the doc-values execution path.
				merged = merged.With("facet.method", "dv")
			}
			break
		}
	}
	return merged, nil
}

func (s *Service) logNotes(frag solr.Fragment) {
	for _, note := range frag.Notes() {
		s.logger.Info("query builder note", zap.String("note", note))
	}
}

// translateBackendError keeps engine-reported failures intact and maps
// anything else (transport, decode) to a generic backend failure.
func translateBackendError(err error) error {
	if errors.Is(err, domain.ErrBackendQuery) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrBackendQuery, err)
}

// Export streams matching documents as CSV to w. The constraint handling
// matches Search, restricted to time-descending document retrieval.
// There is no single-flight limit on concurrent exports; resource
// fairness metering remains an open follow-up.
func (s *Service) Export(ctx context.Context, req *request.Request, w io.Writer) error {
	base := s.buildConstraints(req).
		With("sort", s.schema.Time+" desc")
	s.logNotes(base)
	return s.streamCSV(ctx, base.Params(), req.DocsLimit(), w)
}

func exportParams(base url.Values, start, rows int) url.Values {
	params := url.Values{}
	for k, vs := range base {
		params[k] = append([]string(nil), vs...)
	}
	params.Set("wt", "json")
	params.Set("echoParams", "all")
	params.Set("start", fmt.Sprintf("%d", start))
	params.Set("rows", fmt.Sprintf("%d", rows))
	return params
}
