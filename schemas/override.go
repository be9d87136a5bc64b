package schemas

import "regexp"

// ModelOverrideMatcher selects which newly registered models an override
// applies to. Every field that is set must match; an unset field imposes no
// constraint.
type ModelOverrideMatcher struct {
	Provider     string `json:"provider,omitempty" yaml:"provider,omitempty"`
	ModelID      string `json:"modelId,omitempty" yaml:"modelId,omitempty"`
	ModelPattern string `json:"modelPattern,omitempty" yaml:"modelPattern,omitempty"`
}

// Matches reports whether provider/modelID satisfies every matcher field
// that was set.
func (m ModelOverrideMatcher) Matches(provider, modelID string) bool {
	if m.Provider != "" && m.Provider != provider {
		return false
	}
	if m.ModelID != "" && m.ModelID != modelID {
		return false
	}
	if m.ModelPattern != "" {
		re, err := regexp.Compile(m.ModelPattern)
		if err != nil || !re.MatchString(modelID) {
			return false
		}
	}
	return true
}

// ModelOverride is a patch deep-merged into every newly registered
// ModelInfo whose (provider, modelId) satisfies Matcher.
type ModelOverride struct {
	Matcher   ModelOverrideMatcher   `json:"matcher" yaml:"matcher"`
	Overrides map[string]interface{} `json:"overrides" yaml:"overrides"`
}
