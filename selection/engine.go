// Package selection implements the Selection Engine (C3): given a
// SelectionPredicate, it filters the catalog's owned models down to the
// ones that satisfy every hard constraint, scores the survivors against a
// weighted cost/speed/accuracy/contextWindow rubric, and returns either the
// single best match (Select) or the full ranked list (Search).
package selection

import (
	"sort"

	"github.com/relaymesh/gateway/catalog"
	"github.com/relaymesh/gateway/schemas"
)

// ErrNoModelFound is returned by Select when no catalog entry satisfies the
// predicate's hard constraints.
var ErrNoModelFound = schemas.NewGatewayError(schemas.ErrorKindNoModelFound, "", "no model satisfies the predicate", nil)

// WeightProfiles resolves a named weight profile to its Weights, the
// registry-config source for the predicate→profile→default resolution
// order (§4.3).
type WeightProfiles map[string]schemas.Weights

// Engine is the Selection Engine. The zero value is not usable; build one
// with New.
type Engine struct {
	catalog  *catalog.Catalog
	profiles WeightProfiles
}

// New builds a selection Engine over c, resolving named weight profiles
// from profiles (may be nil).
func New(c *catalog.Catalog, profiles WeightProfiles) *Engine {
	return &Engine{catalog: c, profiles: profiles}
}

// Select runs the full 5-step algorithm (§4.3) and returns the single
// best-scoring model, or ErrNoModelFound when nothing qualifies.
func (e *Engine) Select(predicate schemas.SelectionPredicate) (*schemas.SelectedModel, error) {
	if predicate.Model != "" {
		return e.selectPinned(predicate)
	}

	candidates := e.rankedCandidates(predicate)
	if len(candidates) == 0 {
		return nil, ErrNoModelFound
	}
	best := candidates[0]
	_, providerInstance, _ := e.catalog.GetProviderFor(best.entry.Model.Provider + "/" + best.entry.Model.ID)
	return &schemas.SelectedModel{
		Model:    best.entry.Model,
		Provider: providerInstance,
		Score:    best.score,
	}, nil
}

// Search runs the same filter/score pipeline as Select but returns every
// qualifying model, sorted by descending score (ties broken by provider
// priority then registration order, matching Select's own tie-break so
// Select always equals Search's first element).
func (e *Engine) Search(predicate schemas.SelectionPredicate) ([]schemas.ScoredModel, error) {
	candidates := e.rankedCandidates(predicate)
	out := make([]schemas.ScoredModel, len(candidates))
	for i, c := range candidates {
		out[i] = schemas.ScoredModel{Model: c.entry.Model, Score: c.score}
	}
	return out, nil
}

func (e *Engine) selectPinned(predicate schemas.SelectionPredicate) (*schemas.SelectedModel, error) {
	provider, id := schemas.ParseModelID(predicate.Model, "")
	lookup := predicate.Model
	if provider != "" {
		lookup = provider + "/" + id
	}
	model, ok := e.catalog.Get(lookup)
	if !ok {
		return nil, ErrNoModelFound
	}
	providerCaps, _ := e.catalog.ProviderCapabilities(model.Provider)
	combined := model.Capabilities.Intersect(providerCaps)
	if !combined.HasAll(predicate.Required) {
		return nil, ErrNoModelFound
	}
	_, providerInstance, _ := e.catalog.GetProviderFor(lookup)
	return &schemas.SelectedModel{Model: model, Provider: providerInstance, Score: 1.0}, nil
}

type scoredEntry struct {
	entry catalog.CatalogEntry
	score float64
}

// rankedCandidates runs steps 2-5 of §4.3: filter, score, apply the
// optional-capability/parameter multiplier, then sort descending with the
// provider-priority/registration-order tie-break.
func (e *Engine) rankedCandidates(predicate schemas.SelectionPredicate) []scoredEntry {
	weights := e.resolveWeights(predicate)
	requiredParams := predicate.RequiredParametersOnly()

	var out []scoredEntry
	for _, entry := range e.catalog.Entries() {
		model := entry.Model

		if !predicate.Providers.Allowed(model.Provider) {
			continue
		}
		providerCaps, _ := e.catalog.ProviderCapabilities(model.Provider)
		combined := model.Capabilities.Intersect(providerCaps)
		if !combined.HasAll(predicate.Required) {
			continue
		}
		if !model.SupportedParameters.HasAll(requiredParams) {
			continue
		}
		if predicate.MinContextWindow > 0 && model.ContextWindow < predicate.MinContextWindow {
			continue
		}
		if predicate.Tier != "" && model.Tier != predicate.Tier {
			continue
		}

		score := scoreModel(model, weights)
		score *= optionalMultiplier(combined, model.SupportedParameters, predicate)

		out = append(out, scoredEntry{entry: entry, score: score})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score > out[j].score
		}
		if out[i].entry.ProviderPriority != out[j].entry.ProviderPriority {
			return out[i].entry.ProviderPriority < out[j].entry.ProviderPriority
		}
		return out[i].entry.RegistrationOrder < out[j].entry.RegistrationOrder
	})
	return out
}

// resolveWeights applies the §4.3 resolution order: predicate weights, then
// a named weight profile, then the registry's own default, then the
// hardcoded fallback.
func (e *Engine) resolveWeights(predicate schemas.SelectionPredicate) schemas.Weights {
	if predicate.Weights != nil {
		return *predicate.Weights
	}
	if predicate.WeightProfile != "" {
		if w, ok := e.profiles[predicate.WeightProfile]; ok {
			return w
		}
	}
	if w, ok := e.profiles[""]; ok {
		return w
	}
	return schemas.DefaultWeights
}

const epsilonScore = 0.01

// scoreModel computes the weighted sum of the four scoring dimensions
// (§4.3 step 3). Only dimensions whose inputs are actually present
// contribute to the weighted average's denominator; when none contribute,
// every candidate gets the same epsilon floor so ties fall through to the
// deterministic tie-break instead of sorting by acquisition order alone.
func scoreModel(model schemas.ModelInfo, weights schemas.Weights) float64 {
	var sum, weightSum float64

	if avg, ok := avgTextPrice(model.Pricing); ok {
		cost := 1 / (1 + avg/10)
		sum += weights.Cost * cost
		weightSum += weights.Cost
	}

	if model.Metrics.TokensPerSecond != nil {
		speed := *model.Metrics.TokensPerSecond / 100
		if speed > 1 {
			speed = 1
		}
		sum += weights.Speed * speed
		weightSum += weights.Speed
	}

	accuracy, ok := accuracyFor(model)
	if ok {
		sum += weights.Accuracy * accuracy
		weightSum += weights.Accuracy
	}

	if weights.ContextWindow > 0 && model.ContextWindow > 0 {
		cw := float64(model.ContextWindow) / 100000
		if cw > 1 {
			cw = 1
		}
		sum += weights.ContextWindow * cw
		weightSum += weights.ContextWindow
	}

	if weightSum == 0 {
		return epsilonScore
	}
	return sum / weightSum
}

func avgTextPrice(p schemas.Pricing) (float64, bool) {
	if p.Text == nil || !(p.Text.HasInput() || p.Text.HasOutput()) {
		return 0, false
	}
	return (p.Text.Input + p.Text.Output) / 2, true
}

func accuracyFor(model schemas.ModelInfo) (float64, bool) {
	if model.Metrics.AccuracyScore != nil {
		return *model.Metrics.AccuracyScore, true
	}
	switch model.Tier {
	case schemas.TierFlagship:
		return 1.0, true
	case schemas.TierEfficient:
		return 0.7, true
	case schemas.TierLegacy, schemas.TierExperimental:
		return 0.5, true
	default:
		return 0, false
	}
}

// optionalMultiplier applies §4.3 step 4: a candidate that additionally
// satisfies optional capabilities/parameters ranks above one that only
// meets the required set.
func optionalMultiplier(combinedCaps, supportedParams schemas.StringSet, predicate schemas.SelectionPredicate) float64 {
	mult := 1.0

	if total := predicate.Optional.Len(); total > 0 {
		matched := 0
		for c := range predicate.Optional {
			if combinedCaps.Has(c) {
				matched++
			}
		}
		mult *= 1 + float64(matched)/float64(total)
	}

	if total := predicate.OptionalParameters.Len(); total > 0 {
		matched := 0
		for p := range predicate.OptionalParameters {
			if supportedParams.Has(p) {
				matched++
			}
		}
		mult *= 1 + 0.5*float64(matched)/float64(total)
	}

	return mult
}
