package gateway

import (
	"math"

	"github.com/relaymesh/gateway/schemas"
)

// usageIsEmpty reports whether u carries no billing data at all, the
// signal the pipeline uses to decide whether a response's usage should
// fall back to the pre-dispatch estimate (§4.8 step 10).
func usageIsEmpty(u schemas.Usage) bool {
	return u.Text == nil && u.Reasoning == nil && u.Embeddings == nil &&
		u.Audio == nil && len(u.Image) == 0 && u.Cost == nil
}

// accumulateUsage folds one streamed chunk's usage into the running
// accumulator per §4.8a's streaming accumulation rule: each numeric field
// takes the last-seen value, with "take the maximum" as the tiebreaker for
// a cumulative counter that appears to have gone backward. Since providers
// report a monotonically growing cumulative figure in the ordinary case,
// max(acc, delta) implements both halves of the rule in one expression.
func accumulateUsage(acc, delta schemas.Usage) schemas.Usage {
	acc.Text = mergePriceEntry(acc.Text, delta.Text)
	acc.Reasoning = mergePriceEntry(acc.Reasoning, delta.Reasoning)
	acc.Embeddings = mergeEmbeddingsUsage(acc.Embeddings, delta.Embeddings)
	acc.Audio = mergeAudioUsage(acc.Audio, delta.Audio)
	if len(delta.Image) > 0 {
		acc.Image = delta.Image
	}
	acc.Cost = maxPtr(acc.Cost, delta.Cost)
	return acc
}

func mergePriceEntry(acc, delta *schemas.PriceEntry) *schemas.PriceEntry {
	if delta == nil {
		return acc
	}
	if acc == nil {
		v := *delta
		return &v
	}
	acc.Input = math.Max(acc.Input, delta.Input)
	acc.Output = math.Max(acc.Output, delta.Output)
	acc.Cached = math.Max(acc.Cached, delta.Cached)
	return acc
}

func mergeEmbeddingsUsage(acc, delta *schemas.EmbeddingsUsage) *schemas.EmbeddingsUsage {
	if delta == nil {
		return acc
	}
	if acc == nil {
		v := *delta
		return &v
	}
	acc.Count = intMax(acc.Count, delta.Count)
	acc.Tokens = intMax(acc.Tokens, delta.Tokens)
	return acc
}

func mergeAudioUsage(acc, delta *schemas.AudioUsage) *schemas.AudioUsage {
	if delta == nil {
		return acc
	}
	if acc == nil {
		v := *delta
		return &v
	}
	acc.Seconds = math.Max(acc.Seconds, delta.Seconds)
	acc.Input = intMax(acc.Input, delta.Input)
	acc.Output = intMax(acc.Output, delta.Output)
	return acc
}

func intMax(a, b int) int {
	if a > b {
		return a
	}
	return b
}
