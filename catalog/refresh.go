package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/relaymesh/gateway/schemas"
)

// RefreshConfig bundles the inputs the Refresh Coordinator needs beyond the
// catalog's own bound providers.
type RefreshConfig struct {
	Sources []schemas.ModelSource

	DefaultInputPricePerMillion  float64
	DefaultOutputPricePerMillion float64
	DefaultContextWindow         int

	Logger schemas.Logger
}

// Refresh rebuilds the catalog from every bound provider's listing plus
// every configured external source (§4.4). The rebuild happens entirely
// against a private scratch catalog that no caller can see; only once it
// is complete does it replace the live catalog's model store in one
// locked swap (Catalog.swapModels). A concurrent List/Get/Entries call
// therefore always observes either the full pre-refresh or full
// post-refresh set of models, never the empty-or-partial state a
// clear-then-rebuild-in-place would expose.
func Refresh(ctx context.Context, c *Catalog, cfg RefreshConfig) error {
	logger := cfg.Logger
	if logger == nil {
		logger = schemas.NoOpLogger{}
	}
	runID := uuid.NewString()
	runPrefix := "refresh[" + runID + "]: "

	external := fetchExternalSources(ctx, cfg.Sources, logger, runPrefix)

	scratch := New(c.overrides)

	consumed := make(map[string]bool, len(external))

	for _, provider := range c.Providers() {
		lister, ok := provider.(schemas.ModelLister)
		if !ok {
			continue
		}
		listed, err := lister.ListModels(ctx)
		if err != nil {
			logger.Warn(runPrefix + "listing provider " + provider.Name() + " failed: " + err.Error())
			continue
		}
		for _, model := range listed {
			model = applyListingDefaults(model, cfg)
			key := model.Provider + "/" + model.ID
			if ext, ok := external[key]; ok {
				model = mergeModelInfo(model, ext)
				consumed[key] = true
			}
			if err := scratch.Register(model); err != nil {
				logger.Warn(runPrefix + "registering " + key + " failed: " + err.Error())
			}
		}
	}

	for key, model := range external {
		if consumed[key] {
			continue
		}
		if err := scratch.Register(model); err != nil {
			logger.Warn(runPrefix + "registering external-only " + key + " failed: " + err.Error())
		}
	}

	c.swapModels(scratch)

	return nil
}

// fetchExternalSources fetches every source concurrently via errgroup,
// indexing results by "provider/id". A single source's failure is logged
// and that source's contribution is skipped; it never aborts the others.
func fetchExternalSources(ctx context.Context, sources []schemas.ModelSource, logger schemas.Logger, runPrefix string) map[string]schemas.ModelInfo {
	results := make([]map[string]schemas.ModelInfo, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			models, err := src.FetchModels(gctx)
			if err != nil {
				logger.Warn(runPrefix + "external source fetch failed: " + err.Error())
				return nil
			}
			m := make(map[string]schemas.ModelInfo, len(models))
			for _, model := range models {
				m[model.Provider+"/"+model.ID] = model
			}
			results[i] = m
			return nil
		})
	}
	_ = g.Wait()

	merged := make(map[string]schemas.ModelInfo)
	for _, m := range results {
		for k, v := range m {
			merged[k] = v
		}
	}
	return merged
}

// applyListingDefaults fills in the defaults §4.4 step 2 prescribes for a
// provider-listed model that omits them.
func applyListingDefaults(model schemas.ModelInfo, cfg RefreshConfig) schemas.ModelInfo {
	if model.Capabilities.Len() == 0 {
		model.Capabilities = schemas.NewStringSet(string(schemas.CapabilityChat), string(schemas.CapabilityStreaming))
	}
	if model.Tier == "" {
		model.Tier = detectTier(model.ID)
	}
	if model.Pricing.Text == nil {
		model.Pricing.Text = &schemas.PriceEntry{
			Input:  cfg.DefaultInputPricePerMillion,
			Output: cfg.DefaultOutputPricePerMillion,
		}
	}
	if model.ContextWindow <= 0 {
		model.ContextWindow = cfg.DefaultContextWindow
	}
	return model
}

// detectTier is the pattern-based tier detector §4.4 calls for when a
// listed model declares no tier of its own.
func detectTier(modelID string) schemas.Tier {
	lower := strings.ToLower(modelID)
	switch {
	case strings.Contains(lower, "legacy"):
		return schemas.TierLegacy
	case strings.Contains(lower, "preview"), strings.Contains(lower, "experimental"), strings.Contains(lower, "alpha"), strings.Contains(lower, "beta"):
		return schemas.TierExperimental
	case strings.Contains(lower, "mini"), strings.Contains(lower, "nano"), strings.Contains(lower, "lite"), strings.Contains(lower, "flash"), strings.Contains(lower, "haiku"):
		return schemas.TierEfficient
	default:
		return schemas.TierFlagship
	}
}
