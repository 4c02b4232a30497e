package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/chatgate/chatgate/internal/provider"
)

// ModelCatalog merges the models a provider reports with a fixed fallback
// list, so the list stays useful when the upstream cannot enumerate.
type ModelCatalog struct {
	lister   provider.ModelLister
	fallback []string
	timeout  time.Duration
	logger   *slog.Logger
}

// NewModelCatalog returns a catalog. lister may be nil.
func NewModelCatalog(lister provider.ModelLister, fallback []string, timeout time.Duration, logger *slog.Logger) *ModelCatalog {
	return &ModelCatalog{
		lister:   lister,
		fallback: fallback,
		timeout:  timeout,
		logger:   logger,
	}
}

// List returns the sorted, de-duplicated union of provider and fallback
// models. A provider failure is logged and only the fallback is used; List
// fails only if that leaves nothing to return.
func (c *ModelCatalog) List(ctx context.Context) ([]string, error) {
	var reported []string
	var listErr error
	if c.lister != nil {
		lctx := ctx
		if c.timeout > 0 {
			var cancel context.CancelFunc
			lctx, cancel = context.WithTimeout(ctx, c.timeout)
			defer cancel()
		}
		reported, listErr = c.lister.Models(lctx)
		if listErr != nil {
			c.logger.Warn("provider model listing failed, serving fallback list", "error", listErr)
		}
	}

	models := mergeModels(reported, c.fallback)
	if len(models) == 0 {
		if listErr == nil {
			listErr = errors.New("no models configured")
		}
		return nil, &UpstreamError{Err: listErr}
	}
	return models, nil
}

func mergeModels(lists ...[]string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, list := range lists {
		for _, m := range list {
			if m == "" {
				continue
			}
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out
}
