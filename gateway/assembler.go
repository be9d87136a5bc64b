package gateway

import (
	"context"
	"time"

	"github.com/relaymesh/gateway/schemas"
)

// AssemblerConfig holds the Context/Metadata Assembler's (C7) defaults and
// the caller-supplied, possibly asynchronous, provided* callbacks.
type AssemblerConfig struct {
	DefaultContext  map[string]interface{}
	DefaultMetadata schemas.Metadata

	ProvidedContext  schemas.ProvidedContextFunc
	ProvidedMetadata schemas.ProvidedMetadataFunc
}

type facadeKeyType struct{}

var facadeKey = facadeKeyType{}

// buildContext assembles a GatewayContext per §4.7: defaultContext, then
// the providedContext callback seeded with defaults merged with required,
// then required wins, then a back-reference to facade is installed so a
// composed operation can reach it via ctx.Value(facadeKey).
func (cfg AssemblerConfig) buildContext(parent context.Context, deadline time.Time, required map[string]interface{}, facade interface{}) (*schemas.GatewayContext, error) {
	gctx := schemas.NewGatewayContext(parent, deadline)

	combinedForCallback := mergeContextValues(cfg.DefaultContext, required)
	layer := cfg.DefaultContext
	if cfg.ProvidedContext != nil {
		provided, err := cfg.ProvidedContext(gctx, combinedForCallback)
		if err != nil {
			return gctx, schemas.NewGatewayError(schemas.ErrorKindValidationFailed, "", "providedContext callback failed", err)
		}
		layer = mergeContextValues(cfg.DefaultContext, provided)
	}
	layer = mergeContextValues(layer, required)

	for k, v := range layer {
		gctx.SetValue(k, v)
	}
	gctx.SetValue(facadeKey, facade)
	return gctx, nil
}

func mergeContextValues(base, overlay map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(base)+len(overlay))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overlay {
		out[k] = v
	}
	return out
}

// buildMetadata assembles Metadata per §4.7's field-specific merge table:
// defaultMetadata, then providedMetadata(defaults⊕required), then required,
// each layer folded in with mergeMetadata.
func (cfg AssemblerConfig) buildMetadata(ctx context.Context, required schemas.Metadata) (schemas.Metadata, error) {
	acc := cfg.DefaultMetadata.Clone()
	combinedForCallback := mergeMetadata(acc, required)

	if cfg.ProvidedMetadata != nil {
		provided, err := cfg.ProvidedMetadata(ctx, combinedForCallback)
		if err != nil {
			return schemas.Metadata{}, schemas.NewGatewayError(schemas.ErrorKindValidationFailed, "", "providedMetadata callback failed", err)
		}
		acc = mergeMetadata(acc, provided)
	}
	acc = mergeMetadata(acc, required)
	return acc, nil
}

// mergeMetadata merges overlay onto base per §4.7's table. A zero-valued
// (unset) overlay field never overwrites a defined base field.
func mergeMetadata(base, overlay schemas.Metadata) schemas.Metadata {
	out := base

	out.Required = base.Required.Union(overlay.Required)
	out.Optional = base.Optional.Union(overlay.Optional)
	out.RequiredParameters = base.RequiredParameters.Union(overlay.RequiredParameters)
	out.OptionalParameters = base.OptionalParameters.Union(overlay.OptionalParameters)

	allow := schemas.NewStringSet(append(append([]string{}, base.Providers.Allow...), overlay.Providers.Allow...)...)
	deny := schemas.NewStringSet(append(append([]string{}, base.Providers.Deny...), overlay.Providers.Deny...)...)
	out.Providers.Deny = deny.Slice()
	var allowed []string
	for a := range allow {
		if !deny.Has(a) {
			allowed = append(allowed, a)
		}
	}
	out.Providers.Allow = allowed

	out.Weights = mergeWeights(base.Weights, overlay.Weights)

	out.Budget.MaxCostPerRequest = minPtr(base.Budget.MaxCostPerRequest, overlay.Budget.MaxCostPerRequest)
	out.Budget.MaxCostPerMillionTokens = maxPtr(base.Budget.MaxCostPerMillionTokens, overlay.Budget.MaxCostPerMillionTokens)

	if overlay.Pricing != nil {
		out.Pricing = overlay.Pricing
	}
	if overlay.ContextWindow != 0 {
		out.ContextWindow = overlay.ContextWindow
	}
	if overlay.OutputTokens != 0 {
		out.OutputTokens = overlay.OutputTokens
	}
	if overlay.Metrics != nil {
		out.Metrics = overlay.Metrics
	}

	if overlay.Model != "" {
		out.Model = overlay.Model
	}
	if overlay.WeightProfile != "" {
		out.WeightProfile = overlay.WeightProfile
	}
	if overlay.MinContextWindow != 0 {
		out.MinContextWindow = overlay.MinContextWindow
	}
	if overlay.Tier != "" {
		out.Tier = overlay.Tier
	}

	if overlay.Extra != nil {
		if out.Extra == nil {
			out.Extra = make(map[string]interface{}, len(overlay.Extra))
		} else {
			clone := make(map[string]interface{}, len(out.Extra))
			for k, v := range out.Extra {
				clone[k] = v
			}
			out.Extra = clone
		}
		for k, v := range overlay.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// mergeWeights averages the two defined weight profiles axis-by-axis
// (§4.7's "arithmetic mean of defined values"); a zero axis on one side is
// treated as "not defined" so it doesn't pull the mean toward zero.
func mergeWeights(base, overlay *schemas.Weights) *schemas.Weights {
	if base == nil && overlay == nil {
		return nil
	}
	if base == nil {
		w := *overlay
		return &w
	}
	if overlay == nil {
		w := *base
		return &w
	}
	return &schemas.Weights{
		Cost:          meanNonZero(base.Cost, overlay.Cost),
		Speed:         meanNonZero(base.Speed, overlay.Speed),
		Accuracy:      meanNonZero(base.Accuracy, overlay.Accuracy),
		ContextWindow: meanNonZero(base.ContextWindow, overlay.ContextWindow),
	}
}

func meanNonZero(a, b float64) float64 {
	switch {
	case a == 0:
		return b
	case b == 0:
		return a
	default:
		return (a + b) / 2
	}
}

func minPtr(a, b *float64) *float64 {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case *a < *b:
		return a
	default:
		return b
	}
}

func maxPtr(a, b *float64) *float64 {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case *a > *b:
		return a
	default:
		return b
	}
}
