package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relaymesh/gateway/schemas"
)

func TestAccumulateUsage_LastCumulativeValueWinsInTheOrdinaryCase(t *testing.T) {
	acc := schemas.Usage{}
	acc = accumulateUsage(acc, schemas.Usage{Text: &schemas.PriceEntry{Input: 10, Output: 2}})
	acc = accumulateUsage(acc, schemas.Usage{Text: &schemas.PriceEntry{Input: 25, Output: 5}})
	assert.Equal(t, 25.0, acc.Text.Input)
	assert.Equal(t, 5.0, acc.Text.Output)
}

func TestAccumulateUsage_MaxBreaksTieWhenCounterAppearsToGoBackward(t *testing.T) {
	acc := schemas.Usage{}
	acc = accumulateUsage(acc, schemas.Usage{Text: &schemas.PriceEntry{Input: 40}})
	// A provider bug or counter reset reports a smaller cumulative figure;
	// §4.8a requires the maximum observed value survive, not the latest.
	acc = accumulateUsage(acc, schemas.Usage{Text: &schemas.PriceEntry{Input: 12}})
	assert.Equal(t, 40.0, acc.Text.Input)
}

func TestAccumulateUsage_CostTakesTheMaximumObserved(t *testing.T) {
	low, high := 0.01, 0.05
	acc := schemas.Usage{}
	acc = accumulateUsage(acc, schemas.Usage{Cost: &high})
	acc = accumulateUsage(acc, schemas.Usage{Cost: &low})
	assert.Equal(t, high, *acc.Cost)
}

func TestAccumulateUsage_EmbeddingsAndAudioMergeIndependently(t *testing.T) {
	acc := schemas.Usage{}
	acc = accumulateUsage(acc, schemas.Usage{
		Embeddings: &schemas.EmbeddingsUsage{Count: 1, Tokens: 10},
		Audio:      &schemas.AudioUsage{Seconds: 2.0, Input: 5},
	})
	acc = accumulateUsage(acc, schemas.Usage{
		Embeddings: &schemas.EmbeddingsUsage{Count: 3, Tokens: 8},
		Audio:      &schemas.AudioUsage{Seconds: 1.0, Input: 9},
	})
	assert.Equal(t, 3, acc.Embeddings.Count)
	assert.Equal(t, 10, acc.Embeddings.Tokens)
	assert.Equal(t, 2.0, acc.Audio.Seconds)
	assert.Equal(t, 9, acc.Audio.Input)
}

func TestUsageIsEmpty(t *testing.T) {
	assert.True(t, usageIsEmpty(schemas.Usage{}))
	assert.False(t, usageIsEmpty(schemas.Usage{Text: &schemas.PriceEntry{Input: 1}}))
}
