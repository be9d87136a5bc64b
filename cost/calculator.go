// Package cost implements the Cost Calculator (C6): applying a ModelInfo's
// pricing table to a realized Usage record.
package cost

import "github.com/relaymesh/gateway/schemas"

// Calculator applies pricing to usage. The zero value is ready to use.
type Calculator struct{}

// NewCalculator builds a Calculator.
func NewCalculator() *Calculator { return &Calculator{} }

// Calculate computes the cost of usage against model's pricing, with any
// matching overrides' pricing patch already applied to model.Pricing by the
// caller. If usage.Cost is already set (the provider computed it itself),
// that value is returned unchanged and nothing is recomputed (§4.6).
func (c *Calculator) Calculate(model schemas.ModelInfo, usage schemas.Usage) float64 {
	if usage.Cost != nil {
		return *usage.Cost
	}

	var total float64
	total += priceEntryCost(usage.Text, model.Pricing.Text)
	total += priceEntryCost(usage.Reasoning, model.Pricing.Reasoning)
	total += embeddingsCost(usage.Embeddings, model.Pricing.Embeddings)
	total += audioCost(usage.Audio, model.Pricing.Audio)
	total += imageCost(usage.Image, model.Pricing.Image)
	total += model.Pricing.PerRequest

	return total
}

// priceEntryCost handles the text/reasoning modality shape shared by both
// Pricing and Usage: input/output per-million-token terms plus a cached
// term that falls back to the input price when no cached price is set.
func priceEntryCost(usage, price *schemas.PriceEntry) float64 {
	if usage == nil || price == nil {
		return 0
	}
	var sum float64
	if price.HasInput() {
		sum += usage.Input * price.Input / 1e6
	}
	if price.HasOutput() {
		sum += usage.Output * price.Output / 1e6
	}
	if usage.Cached > 0 {
		cachedPrice := price.Cached
		if !price.HasCached() {
			cachedPrice = price.Input
		}
		sum += usage.Cached * cachedPrice / 1e6
	}
	return sum
}

func embeddingsCost(usage *schemas.EmbeddingsUsage, price *schemas.EmbeddingPrice) float64 {
	if usage == nil || price == nil {
		return 0
	}
	return float64(usage.Tokens) * price.Cost / 1e6
}

func audioCost(usage *schemas.AudioUsage, price *schemas.AudioPrice) float64 {
	if usage == nil || price == nil {
		return 0
	}
	var sum float64
	sum += usage.Seconds * price.PerSecond
	if price.Input != 0 {
		sum += float64(usage.Input) * price.Input / 1e6
	}
	if price.Output != 0 {
		sum += float64(usage.Output) * price.Output / 1e6
	}
	return sum
}

// imageCost looks up each declared {quality, size, count} entry against the
// pricing table and adds sizeEntry.cost*count, silently skipping any entry
// with no matching quality or size (§4.6, and the open-question decision in
// SPEC_FULL.md to preserve rather than harden this behavior).
func imageCost(usage []schemas.ImageOutputUsage, price *schemas.ImagePrice) float64 {
	if len(usage) == 0 || price == nil {
		return 0
	}
	var sum float64
	for _, u := range usage {
		for _, q := range price.Output {
			if q.Quality != u.Quality {
				continue
			}
			for _, s := range q.Sizes {
				if s.Width == u.Size.Width && s.Height == u.Size.Height {
					sum += s.Cost * float64(u.Count)
				}
			}
		}
	}
	return sum
}
