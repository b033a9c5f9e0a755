package search

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/MasterOfNone69/hhypermap-bop/internal/domain"
	"github.com/MasterOfNone69/hhypermap-bop/internal/solr"
)

// multiValueSeparator joins the values of a multi-valued field into one
// CSV cell.
const multiValueSeparator = "|"

// streamCSV pages through the backend and writes matching documents to w
// as CSV, up to limit rows. The column set comes from the field list the
// backend echoes back, so the collection configuration decides what an
// export contains.
//
// Once the first byte has been written the response status is already on
// the wire; a write failure after that point is a client disconnect, not
// an export failure.
func (s *Service) streamCSV(ctx context.Context, base url.Values, limit int, w io.Writer) error {
	cw := csv.NewWriter(w)

	var columns []string
	written := 0
	for start := 0; written < limit; start += s.exportPageSize {
		rows := s.exportPageSize
		if remaining := limit - written; remaining < rows {
			rows = remaining
		}

		raw, err := s.backend.Select(ctx, exportParams(base, start, rows))
		if err != nil {
			if columns == nil {
				return translateBackendError(err)
			}
			s.logger.Warn("export aborted mid-stream", zap.Error(err))
			return nil
		}

		if columns == nil {
			columns, err = exportColumns(raw)
			if err != nil {
				return err
			}
			if err := cw.Write(columns); err != nil {
				return nil
			}
		}

		for _, doc := range raw.Docs {
			if err := cw.Write(s.csvRecord(columns, doc)); err != nil {
				return nil
			}
			written++
		}

		// Flush per page so the client sees rows as they arrive.
		cw.Flush()
		if cw.Error() != nil {
			return nil
		}

		if int64(start+len(raw.Docs)) >= raw.NumFound || len(raw.Docs) < rows {
			break
		}
	}

	cw.Flush()
	return nil
}

// exportColumns reads the effective field list out of the echoed
// parameters. The gateway never sets fl itself; a collection without one
// configured would export every stored field in no stable order, so that
// is refused outright.
func exportColumns(raw *solr.Response) ([]string, error) {
	fl, ok := raw.EchoedParams["fl"]
	if !ok || strings.TrimSpace(fl) == "" {
		return nil, fmt.Errorf("%w: backend echoed no field list (fl)", domain.ErrExportConfiguration)
	}
	parts := strings.FieldsFunc(fl, func(r rune) bool { return r == ',' || r == ' ' })
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: backend echoed an empty field list", domain.ErrExportConfiguration)
	}
	return parts, nil
}

// csvRecord renders one document against the column set. Missing fields
// become empty cells; multi-valued fields are joined.
func (s *Service) csvRecord(columns []string, doc solr.NamedList) []string {
	record := make([]string, len(columns))
	for i, col := range columns {
		v, ok := doc.Get(col)
		if !ok {
			continue
		}
		if col == s.schema.ID {
			record[i] = ReinterpretID(v)
			continue
		}
		record[i] = csvCell(v)
	}
	return record
}

func csvCell(v any) string {
	if arr, ok := v.([]any); ok {
		parts := make([]string, len(arr))
		for i, item := range arr {
			parts[i] = solr.LeafString(item)
		}
		return strings.Join(parts, multiValueSeparator)
	}
	return solr.LeafString(v)
}
