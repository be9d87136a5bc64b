package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaymesh/gateway/schemas"
)

type listingProvider struct {
	fakeProvider
	models []schemas.ModelInfo
}

func (p *listingProvider) ListModels(ctx context.Context) ([]schemas.ModelInfo, error) {
	return p.models, nil
}

type staticSource struct {
	models []schemas.ModelInfo
}

func (s *staticSource) FetchModels(ctx context.Context) ([]schemas.ModelInfo, error) {
	return s.models, nil
}

type failingSource struct{}

func (failingSource) FetchModels(ctx context.Context) ([]schemas.ModelInfo, error) {
	return nil, assert.AnError
}

func TestRefresh_MergesExternalSourceIntoListedModel(t *testing.T) {
	c := New(nil)
	provider := &listingProvider{
		fakeProvider: fakeProvider{name: "p1", priority: 10},
		models: []schemas.ModelInfo{
			{ID: "m1", Provider: "p1", Capabilities: schemas.NewStringSet("chat"), ContextWindow: 8192},
		},
	}
	c.BindProvider(provider)

	source := &staticSource{models: []schemas.ModelInfo{
		{
			ID:           "m1",
			Provider:     "p1",
			Capabilities: schemas.NewStringSet("chat", "vision"),
			Pricing:      schemas.Pricing{Text: &schemas.PriceEntry{Input: 0.5, Output: 1.0}},
		},
	}}

	err := Refresh(context.Background(), c, RefreshConfig{
		Sources:               []schemas.ModelSource{source},
		DefaultContextWindow:  8192,
	})
	require.NoError(t, err)

	got, ok := c.Get("p1/m1")
	require.True(t, ok)
	assert.True(t, got.Capabilities.Has("chat"))
	assert.True(t, got.Capabilities.Has("vision"))
	assert.Equal(t, 0.5, got.Pricing.Text.Input)
}

func TestRefresh_FailingSourceIsSkippedNotPropagated(t *testing.T) {
	c := New(nil)
	provider := &listingProvider{
		fakeProvider: fakeProvider{name: "p1", priority: 10},
		models: []schemas.ModelInfo{
			{ID: "m1", Provider: "p1", Capabilities: schemas.NewStringSet("chat"), ContextWindow: 8192},
		},
	}
	c.BindProvider(provider)

	err := Refresh(context.Background(), c, RefreshConfig{
		Sources:               []schemas.ModelSource{failingSource{}},
		DefaultContextWindow:  8192,
	})
	require.NoError(t, err)

	_, ok := c.Get("p1/m1")
	assert.True(t, ok)
}

func TestRefresh_ApplyListingDefaults(t *testing.T) {
	cfg := RefreshConfig{DefaultInputPricePerMillion: 1, DefaultOutputPricePerMillion: 2, DefaultContextWindow: 8192}
	model := applyListingDefaults(schemas.ModelInfo{ID: "gpt-mini", Provider: "p1"}, cfg)

	assert.True(t, model.Capabilities.Has("chat"))
	assert.True(t, model.Capabilities.Has("streaming"))
	assert.Equal(t, schemas.TierEfficient, model.Tier)
	assert.Equal(t, 1.0, model.Pricing.Text.Input)
	assert.Equal(t, 2.0, model.Pricing.Text.Output)
	assert.Equal(t, 8192, model.ContextWindow)
}

func TestRefresh_ExternalOnlyEntryIsRegistered(t *testing.T) {
	c := New(nil)
	source := &staticSource{models: []schemas.ModelInfo{
		{ID: "onlyExternal", Provider: "p2", Capabilities: schemas.NewStringSet("chat"), ContextWindow: 8192},
	}}

	err := Refresh(context.Background(), c, RefreshConfig{Sources: []schemas.ModelSource{source}})
	require.NoError(t, err)

	_, ok := c.Get("p2/onlyExternal")
	assert.True(t, ok)
}
