package schemas

import (
	"strings"
	"time"
)

// Capability is a tag describing a feature a model or provider supports.
type Capability string

const (
	CapabilityChat       Capability = "chat"
	CapabilityStreaming  Capability = "streaming"
	CapabilityVision     Capability = "vision"
	CapabilityTools      Capability = "tools"
	CapabilityJSON       Capability = "json"
	CapabilityStructured Capability = "structured"
	CapabilityReasoning  Capability = "reasoning"
	CapabilityImage      Capability = "image"
	CapabilityAudio      Capability = "audio"
	CapabilityHearing    Capability = "hearing"
	CapabilityEmbedding  Capability = "embedding"
	CapabilityZDR        Capability = "zdr"
)

// Parameter is a tag describing a per-request tunable the model must accept.
type Parameter string

const (
	ParameterMaxTokens         Parameter = "maxTokens"
	ParameterTemperature       Parameter = "temperature"
	ParameterTopP              Parameter = "topP"
	ParameterTopK              Parameter = "topK"
	ParameterStopSequences     Parameter = "stopSequences"
	ParameterPresencePenalty   Parameter = "presencePenalty"
	ParameterFrequencyPenalty  Parameter = "frequencyPenalty"
	ParameterTools             Parameter = "tools"
	ParameterToolChoice        Parameter = "toolChoice"
	ParameterParallelToolCalls Parameter = "parallelToolCalls"
	ParameterResponseFormat    Parameter = "responseFormat"
	ParameterReasoningEffort   Parameter = "reasoningEffort"
)

// Tier is a coarse quality band for a model.
type Tier string

const (
	TierFlagship     Tier = "flagship"
	TierEfficient    Tier = "efficient"
	TierLegacy       Tier = "legacy"
	TierExperimental Tier = "experimental"
)

// StringSet is a small set-of-strings helper used throughout the data model
// for capability/parameter sets, which are logically unordered and
// deduplicated on every merge.
type StringSet map[string]struct{}

// NewStringSet builds a StringSet from a slice, deduplicating.
func NewStringSet(items ...string) StringSet {
	s := make(StringSet, len(items))
	for _, it := range items {
		if it == "" {
			continue
		}
		s[it] = struct{}{}
	}
	return s
}

// Has reports whether item is present.
func (s StringSet) Has(item string) bool {
	if s == nil {
		return false
	}
	_, ok := s[item]
	return ok
}

// HasAll reports whether every item in items is present in s.
func (s StringSet) HasAll(items StringSet) bool {
	for item := range items {
		if !s.Has(item) {
			return false
		}
	}
	return true
}

// Union returns a new StringSet containing every element of s and other.
func (s StringSet) Union(other StringSet) StringSet {
	out := make(StringSet, len(s)+len(other))
	for k := range s {
		out[k] = struct{}{}
	}
	for k := range other {
		out[k] = struct{}{}
	}
	return out
}

// Intersect returns a new StringSet containing only elements present in
// both s and other.
func (s StringSet) Intersect(other StringSet) StringSet {
	out := make(StringSet)
	small, large := s, other
	if len(other) < len(s) {
		small, large = other, s
	}
	for k := range small {
		if large.Has(k) {
			out[k] = struct{}{}
		}
	}
	return out
}

// Slice returns the set's members as a slice (unordered).
func (s StringSet) Slice() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	return out
}

// Len reports the number of members.
func (s StringSet) Len() int { return len(s) }

// PriceEntry is a single input/output/cached price tuple for a modality
// that bills by the million tokens.
type PriceEntry struct {
	Input  float64 `json:"input,omitempty" yaml:"input,omitempty"`
	Output float64 `json:"output,omitempty" yaml:"output,omitempty"`
	Cached float64 `json:"cached,omitempty" yaml:"cached,omitempty"`
}

// HasInput reports whether an input price was actually configured (as
// opposed to defaulting to the float64 zero value).
func (p *PriceEntry) HasInput() bool { return p != nil && p.Input != 0 }

// HasOutput reports whether an output price was actually configured.
func (p *PriceEntry) HasOutput() bool { return p != nil && p.Output != 0 }

// HasCached reports whether a cached price was actually configured.
func (p *PriceEntry) HasCached() bool { return p != nil && p.Cached != 0 }

// EmbeddingPrice prices embedding requests per million tokens.
type EmbeddingPrice struct {
	Cost float64 `json:"cost,omitempty" yaml:"cost,omitempty"`
}

// AudioPrice prices audio operations; PerSecond is an absolute currency
// unit, Input/Output are per-million-token prices for any token-based
// billing a provider layers on top (e.g. transcription token counts).
type AudioPrice struct {
	Input     float64 `json:"input,omitempty" yaml:"input,omitempty"`
	Output    float64 `json:"output,omitempty" yaml:"output,omitempty"`
	PerSecond float64 `json:"perSecond,omitempty" yaml:"perSecond,omitempty"`
}

// ImageSizePrice is a fixed cost for one generated image of a given size.
type ImageSizePrice struct {
	Width  int     `json:"width" yaml:"width"`
	Height int     `json:"height" yaml:"height"`
	Cost   float64 `json:"cost" yaml:"cost"`
}

// ImageQualityPrice groups size prices under a quality tier (e.g. "hd").
type ImageQualityPrice struct {
	Quality string           `json:"quality" yaml:"quality"`
	Sizes   []ImageSizePrice `json:"sizes" yaml:"sizes"`
}

// ImagePrice holds per-quality image generation pricing. Input is a flat
// per-million-token price for any text tokens billed alongside the image
// (e.g. a prompt), Output enumerates the quality/size cost table.
type ImagePrice struct {
	Input  float64             `json:"input,omitempty" yaml:"input,omitempty"`
	Output []ImageQualityPrice `json:"output,omitempty" yaml:"output,omitempty"`
}

// Pricing is a structurally valid (possibly partially populated) pricing
// record grouped by modality. Every modality sub-record is optional.
type Pricing struct {
	Text       *PriceEntry     `json:"text,omitempty" yaml:"text,omitempty"`
	Reasoning  *PriceEntry     `json:"reasoning,omitempty" yaml:"reasoning,omitempty"`
	Embeddings *EmbeddingPrice `json:"embeddings,omitempty" yaml:"embeddings,omitempty"`
	Audio      *AudioPrice     `json:"audio,omitempty" yaml:"audio,omitempty"`
	Image      *ImagePrice     `json:"image,omitempty" yaml:"image,omitempty"`
	PerRequest float64         `json:"perRequest,omitempty" yaml:"perRequest,omitempty"`
}

// ImageOutputUsage records billable image generation output: one entry per
// distinct (quality, size) pair produced for the request, with a count.
type ImageOutputUsage struct {
	Quality string `json:"quality"`
	Size    struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"size"`
	Count int `json:"count"`
}

// EmbeddingsUsage records embedding billing units.
type EmbeddingsUsage struct {
	Count  int `json:"count"`
	Tokens int `json:"tokens"`
}

// AudioUsage records audio billing units: duration plus any token-based
// input/output counts a provider layers on top.
type AudioUsage struct {
	Seconds float64 `json:"seconds,omitempty"`
	Input   int     `json:"input,omitempty"`
	Output  int     `json:"output,omitempty"`
}

// Usage mirrors Pricing's modality grouping. Cost, if set by the provider
// itself, short-circuits the Cost Calculator (§4.6).
type Usage struct {
	Text       *PriceEntry        `json:"text,omitempty"`
	Reasoning  *PriceEntry        `json:"reasoning,omitempty"`
	Embeddings *EmbeddingsUsage   `json:"embeddings,omitempty"`
	Audio      *AudioUsage        `json:"audio,omitempty"`
	Image      []ImageOutputUsage `json:"image,omitempty"`
	Cost       *float64           `json:"cost,omitempty"`
}

// Metrics is the rolling performance/quality profile of a model. All
// fields are optional; the Selection Engine treats missing fields as
// "this dimension does not contribute to the score".
type Metrics struct {
	TokensPerSecond        *float64   `json:"tokensPerSecond,omitempty"`
	TimeToFirstToken       *float64   `json:"timeToFirstToken,omitempty"`
	AverageRequestDuration *float64   `json:"averageRequestDuration,omitempty"`
	AccuracyScore          *float64   `json:"accuracyScore,omitempty"` // in [0,1]
	RequestCount           int64      `json:"requestCount"`
	SuccessCount           int64      `json:"successCount"`
	FailureCount           int64      `json:"failureCount"`
	LastUpdated            *time.Time `json:"lastUpdated,omitempty"`
}

// ModelInfo is the catalog record for one (provider, id) model.
type ModelInfo struct {
	ID                  string                 `json:"id"`
	Provider            string                 `json:"provider"`
	DisplayName         string                 `json:"displayName,omitempty"`
	Capabilities        StringSet              `json:"capabilities"`
	Tier                Tier                   `json:"tier,omitempty"`
	ContextWindow       int                    `json:"contextWindow"`
	MaxOutputTokens     *int                   `json:"maxOutputTokens,omitempty"`
	Pricing             Pricing                `json:"pricing"`
	Metrics             Metrics                `json:"metrics"`
	SupportedParameters StringSet              `json:"supportedParameters"`
	Tokenizer           string                 `json:"tokenizer,omitempty"`
	Metadata            map[string]interface{} `json:"metadata,omitempty"`
}

// Key returns the bare-id and provider/id lookup keys for this model, the
// same two-key indexing scheme the Catalog (§4.1) uses.
func (m *ModelInfo) Key() (bareID, providerID string) {
	return m.ID, m.Provider + "/" + m.ID
}

// Validate enforces the §3 ModelInfo invariants: capabilities non-empty
// after registration, contextWindow >= 1, and a structurally present id
// and provider.
func (m *ModelInfo) Validate() error {
	if m.ID == "" {
		return errRequired("id")
	}
	if m.Provider == "" {
		return errRequired("provider")
	}
	if m.ContextWindow < 1 {
		return errInvalidContextWindow(m.ContextWindow)
	}
	if m.Capabilities.Len() == 0 {
		return errRequired("capabilities")
	}
	return nil
}

// ParseModelID splits a model identifier of the shape "providerName/modelId"
// into its provider and bare-id parts, defaulting to defaultProvider when
// no "/" separator is present. Only the first "/" is treated as the
// separator so model ids that themselves contain slashes are preserved.
func ParseModelID(model string, defaultProvider string) (provider, id string) {
	if idx := strings.Index(model, "/"); idx >= 0 {
		return model[:idx], model[idx+1:]
	}
	return defaultProvider, model
}
