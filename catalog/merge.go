package catalog

import "github.com/relaymesh/gateway/schemas"

// mergeModelInfo implements the §4.1 merge-on-insert field rules: base is
// the entry already in the catalog, source is the newly registered model
// colliding with it under the same (provider, id) key.
func mergeModelInfo(base, source schemas.ModelInfo) schemas.ModelInfo {
	out := base

	out.Capabilities = base.Capabilities.Union(source.Capabilities)
	out.SupportedParameters = base.SupportedParameters.Union(source.SupportedParameters)

	out.Pricing = mergePricing(base.Pricing, source.Pricing)
	out.Metrics = mergeMetrics(base.Metrics, source.Metrics)
	out.Metadata = mergeMetadataMap(base.Metadata, source.Metadata)

	if source.Tier != "" && source.Tier != schemas.TierExperimental {
		out.Tier = source.Tier
	} else if base.Tier == "" {
		out.Tier = source.Tier
	}

	if source.ContextWindow > 0 && source.ContextWindow > base.ContextWindow {
		out.ContextWindow = source.ContextWindow
	}

	if source.DisplayName != "" {
		out.DisplayName = source.DisplayName
	}

	if source.MaxOutputTokens != nil {
		out.MaxOutputTokens = source.MaxOutputTokens
	}
	if source.Tokenizer != "" {
		out.Tokenizer = source.Tokenizer
	}

	return out
}

// mergePricing shallow-merges Pricing: each modality group is replaced
// wholesale by source's when source supplies one, otherwise base's is kept.
func mergePricing(base, source schemas.Pricing) schemas.Pricing {
	out := base
	if source.Text != nil {
		out.Text = source.Text
	}
	if source.Reasoning != nil {
		out.Reasoning = source.Reasoning
	}
	if source.Embeddings != nil {
		out.Embeddings = source.Embeddings
	}
	if source.Audio != nil {
		out.Audio = source.Audio
	}
	if source.Image != nil {
		out.Image = source.Image
	}
	if source.PerRequest != 0 {
		out.PerRequest = source.PerRequest
	}
	return out
}

// mergeMetrics shallow-merges Metrics field by field, source winning
// whenever it carries a value.
func mergeMetrics(base, source schemas.Metrics) schemas.Metrics {
	out := base
	if source.TokensPerSecond != nil {
		out.TokensPerSecond = source.TokensPerSecond
	}
	if source.TimeToFirstToken != nil {
		out.TimeToFirstToken = source.TimeToFirstToken
	}
	if source.AverageRequestDuration != nil {
		out.AverageRequestDuration = source.AverageRequestDuration
	}
	if source.AccuracyScore != nil {
		out.AccuracyScore = source.AccuracyScore
	}
	if source.RequestCount > 0 {
		out.RequestCount = source.RequestCount
	}
	if source.SuccessCount > 0 {
		out.SuccessCount = source.SuccessCount
	}
	if source.FailureCount > 0 {
		out.FailureCount = source.FailureCount
	}
	if source.LastUpdated != nil {
		out.LastUpdated = source.LastUpdated
	}
	return out
}

func mergeMetadataMap(base, source map[string]interface{}) map[string]interface{} {
	if len(base) == 0 && len(source) == 0 {
		return nil
	}
	out := make(map[string]interface{}, len(base)+len(source))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range source {
		out[k] = v
	}
	return out
}
