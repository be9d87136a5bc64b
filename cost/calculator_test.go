package cost

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relaymesh/gateway/schemas"
)

func sampleModel() schemas.ModelInfo {
	return schemas.ModelInfo{
		ID:       "m1",
		Provider: "p1",
		Pricing: schemas.Pricing{
			Text: &schemas.PriceEntry{Input: 1.0, Output: 2.0},
		},
	}
}

func TestCalculator_Calculate_SimpleChat(t *testing.T) {
	c := NewCalculator()
	usage := schemas.Usage{Text: &schemas.PriceEntry{Input: 10, Output: 20}}

	got := c.Calculate(sampleModel(), usage)

	assert.InDelta(t, (10*1.0+20*2.0)/1e6, got, 1e-12)
}

func TestCalculator_Calculate_UsageCostShortCircuits(t *testing.T) {
	c := NewCalculator()
	preset := 99.0
	usage := schemas.Usage{Text: &schemas.PriceEntry{Input: 10, Output: 20}, Cost: &preset}

	got := c.Calculate(sampleModel(), usage)

	assert.Equal(t, preset, got)
}

func TestCalculator_Calculate_CachedFallsBackToInput(t *testing.T) {
	c := NewCalculator()
	model := sampleModel()
	usage := schemas.Usage{Text: &schemas.PriceEntry{Input: 10, Cached: 5}}

	got := c.Calculate(model, usage)

	assert.InDelta(t, (10*1.0+5*1.0)/1e6, got, 1e-12)
}

func TestCalculator_Calculate_CachedUsesOwnPriceWhenPresent(t *testing.T) {
	c := NewCalculator()
	model := sampleModel()
	model.Pricing.Text.Cached = 0.1
	usage := schemas.Usage{Text: &schemas.PriceEntry{Input: 10, Cached: 5}}

	got := c.Calculate(model, usage)

	assert.InDelta(t, (10*1.0+5*0.1)/1e6, got, 1e-12)
}

func TestCalculator_Calculate_ImageCostSkipsUnmatchedEntrySilently(t *testing.T) {
	c := NewCalculator()
	model := schemas.ModelInfo{
		Pricing: schemas.Pricing{
			Image: &schemas.ImagePrice{
				Output: []schemas.ImageQualityPrice{
					{Quality: "standard", Sizes: []schemas.ImageSizePrice{{Width: 512, Height: 512, Cost: 0.02}}},
				},
			},
		},
	}
	usage := []schemas.ImageOutputUsage{
		{Quality: "standard", Count: 1, Size: struct {
			Width  int `json:"width"`
			Height int `json:"height"`
		}{Width: 512, Height: 512}},
		{Quality: "hd", Count: 3, Size: struct {
			Width  int `json:"width"`
			Height int `json:"height"`
		}{Width: 1024, Height: 1024}},
	}

	got := c.Calculate(model, schemas.Usage{Image: usage})

	assert.InDelta(t, 0.02, got, 1e-12)
}

func TestCalculator_Calculate_PerRequestAddedOnce(t *testing.T) {
	c := NewCalculator()
	model := sampleModel()
	model.Pricing.PerRequest = 0.5
	usage := schemas.Usage{Text: &schemas.PriceEntry{Input: 10, Output: 20}}

	got := c.Calculate(model, usage)

	assert.InDelta(t, (10*1.0+20*2.0)/1e6+0.5, got, 1e-12)
}

func TestCalculator_Calculate_Additive(t *testing.T) {
	c := NewCalculator()
	model := sampleModel()

	u1 := schemas.Usage{Text: &schemas.PriceEntry{Input: 10, Output: 5}}
	u2 := schemas.Usage{Text: &schemas.PriceEntry{Input: 7, Output: 3}}
	combined := schemas.Usage{Text: &schemas.PriceEntry{Input: 17, Output: 8}}

	assert.InDelta(t, c.Calculate(model, u1)+c.Calculate(model, u2), c.Calculate(model, combined), 1e-12)
}
