package schemas

// Weights are the scoring axis weights the Selection Engine applies when no
// dimension-specific weight is requested. They conventionally sum to <= 1.
type Weights struct {
	Cost          float64 `json:"cost,omitempty" yaml:"cost,omitempty"`
	Speed         float64 `json:"speed,omitempty" yaml:"speed,omitempty"`
	Accuracy      float64 `json:"accuracy,omitempty" yaml:"accuracy,omitempty"`
	ContextWindow float64 `json:"contextWindow,omitempty" yaml:"contextWindow,omitempty"`
}

// DefaultWeights is the weight profile used when nothing more specific is
// configured: predicate weights, then a named weight profile, then the
// registry default, then this.
var DefaultWeights = Weights{Cost: 0.5, Speed: 0.3, Accuracy: 0.2}

// Budget caps the cost the Selection Engine (or a beforeRequest hook) is
// willing to accept for a request.
type Budget struct {
	MaxCostPerRequest       *float64 `json:"maxCostPerRequest,omitempty"`
	MaxCostPerMillionTokens *float64 `json:"maxCostPerMillionTokens,omitempty"`
}

// ProviderFilter allows/denies providers by name. Deny always wins.
type ProviderFilter struct {
	Allow []string `json:"allow,omitempty"`
	Deny  []string `json:"deny,omitempty"`
}

// Allowed reports whether provider passes this filter.
func (f *ProviderFilter) Allowed(provider string) bool {
	if f == nil {
		return true
	}
	for _, d := range f.Deny {
		if d == provider {
			return false
		}
	}
	if len(f.Allow) == 0 {
		return true
	}
	for _, a := range f.Allow {
		if a == provider {
			return true
		}
	}
	return false
}

// SelectionPredicate describes what the Selection Engine must find: a pinned
// model bypasses scoring entirely; otherwise every catalog entry is filtered
// and scored against these fields.
type SelectionPredicate struct {
	Model string `json:"model,omitempty"`

	Required StringSet `json:"required,omitempty"`
	Optional StringSet `json:"optional,omitempty"`

	RequiredParameters StringSet `json:"requiredParameters,omitempty"`
	OptionalParameters StringSet `json:"optionalParameters,omitempty"`

	Providers ProviderFilter `json:"providers,omitempty"`

	Budget Budget `json:"budget,omitempty"`

	Weights       *Weights `json:"weights,omitempty"`
	WeightProfile string   `json:"weightProfile,omitempty"`

	MinContextWindow int  `json:"minContextWindow,omitempty"`
	Tier             Tier `json:"tier,omitempty"`
}

// RequiredParametersOnly returns RequiredParameters minus OptionalParameters,
// the set actually enforced against a model's SupportedParameters per §4.3.
func (p *SelectionPredicate) RequiredParametersOnly() StringSet {
	out := make(StringSet, p.RequiredParameters.Len())
	for k := range p.RequiredParameters {
		if !p.OptionalParameters.Has(k) {
			out[k] = struct{}{}
		}
	}
	return out
}

// SelectedModel is the result of selection, passed on into dispatch.
type SelectedModel struct {
	Model         ModelInfo
	Provider      Provider
	ProviderConfig interface{}
	Score         float64
}

// ScoredModel is one entry of a search() result set.
type ScoredModel struct {
	Model ModelInfo
	Score float64
}
