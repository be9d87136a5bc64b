package catalog

import "github.com/relaymesh/gateway/schemas"

// DetectCapabilities derives a provider's supported capability set from
// which optional dispatch interfaces it implements (C2, §4.2). Capability
// tags that are model-level rather than provider-level (vision, tools,
// json, structured, reasoning, zdr) have no corresponding interface, so
// they are conventionally included here unconditionally per §4.2 — the
// Selection Engine intersects this set with the model's own Capabilities
// (§4.3 step 2, §8: `required ⊆ M.capabilities ∩ providerCaps`), and an
// always-present tag on the provider side makes that intersection reduce
// to exactly the model's own declaration for these six tags, which is
// the "filtering happens at the model level" §4.2 describes. The
// remaining tags below (chat/streaming/image/audio/hearing/embedding)
// are genuinely provider-level: they are only present when the provider
// implements the matching dispatch interface, so the same intersection
// also requires the model to declare them for a pinned/candidate match.
func DetectCapabilities(p schemas.Provider) schemas.StringSet {
	caps := schemas.NewStringSet(
		string(schemas.CapabilityVision),
		string(schemas.CapabilityTools),
		string(schemas.CapabilityJSON),
		string(schemas.CapabilityStructured),
		string(schemas.CapabilityReasoning),
		string(schemas.CapabilityZDR),
	)

	if _, ok := p.(schemas.ChatExecutor); ok {
		caps[string(schemas.CapabilityChat)] = struct{}{}
	}
	if _, ok := p.(schemas.ChatStreamer); ok {
		caps[string(schemas.CapabilityStreaming)] = struct{}{}
	}
	if _, ok := p.(schemas.ImageAnalyzer); ok {
		caps[string(schemas.CapabilityChat)] = struct{}{}
	}
	if _, ok := p.(schemas.ImageAnalyzeStreamer); ok {
		caps[string(schemas.CapabilityStreaming)] = struct{}{}
	}
	if _, ok := p.(schemas.ImageGenerator); ok {
		caps[string(schemas.CapabilityImage)] = struct{}{}
	}
	if _, ok := p.(schemas.ImageEditor); ok {
		caps[string(schemas.CapabilityImage)] = struct{}{}
	}
	if _, ok := p.(schemas.SpeechExecutor); ok {
		caps[string(schemas.CapabilityAudio)] = struct{}{}
	}
	if _, ok := p.(schemas.TranscribeExecutor); ok {
		caps[string(schemas.CapabilityHearing)] = struct{}{}
	}
	if _, ok := p.(schemas.EmbeddingExecutor); ok {
		caps[string(schemas.CapabilityEmbedding)] = struct{}{}
	}

	return caps
}
