package search

import (
	"context"
	"net/url"

	"github.com/MasterOfNone69/hhypermap-bop/internal/solr"
)

// Backend dispatches one assembled query to the search engine.
type Backend interface {
	Select(ctx context.Context, params url.Values) (*solr.Response, error)
}
