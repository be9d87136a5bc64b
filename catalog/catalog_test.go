package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaymesh/gateway/schemas"
)

type fakeProvider struct {
	name     string
	priority int
}

func (p *fakeProvider) Name() string                            { return p.name }
func (p *fakeProvider) Config() interface{}                     { return nil }
func (p *fakeProvider) Priority() int                            { return p.priority }
func (p *fakeProvider) DefaultMetadata() map[string]interface{} { return nil }
func (p *fakeProvider) CheckHealth(ctx context.Context) error   { return nil }
func (p *fakeProvider) ChatExecute(ctx context.Context, req *schemas.ChatRequest) (*schemas.ChatResponse, error) {
	return nil, nil
}

func m(provider, id string) schemas.ModelInfo {
	return schemas.ModelInfo{
		ID:            id,
		Provider:      provider,
		ContextWindow: 4096,
		Capabilities:  schemas.NewStringSet("chat"),
	}
}

func TestCatalog_Register_TwiceMergesCapabilities(t *testing.T) {
	c := New(nil)

	first := m("p1", "m1")
	first.Capabilities = schemas.NewStringSet("chat")
	first.Pricing.Text = &schemas.PriceEntry{Input: 1, Output: 2}

	second := m("p1", "m1")
	second.Capabilities = schemas.NewStringSet("chat", "vision")
	second.Pricing.Text = &schemas.PriceEntry{Input: 3, Output: 4}

	require.NoError(t, c.Register(first))
	require.NoError(t, c.Register(second))

	got, ok := c.Get("p1/m1")
	require.True(t, ok)
	assert.True(t, got.Capabilities.Has("chat"))
	assert.True(t, got.Capabilities.Has("vision"))
	// source (second registration) wins the pricing conflict.
	assert.Equal(t, 3.0, got.Pricing.Text.Input)
}

func TestCatalog_Register_RejectsInvalidModel(t *testing.T) {
	c := New(nil)
	err := c.Register(schemas.ModelInfo{ID: "", Provider: "p1", ContextWindow: 100, Capabilities: schemas.NewStringSet("chat")})
	assert.Error(t, err)
}

func TestCatalog_Get_AmbiguousBareIDResolvesByPriority(t *testing.T) {
	c := New(nil)
	c.BindProvider(&fakeProvider{name: "low", priority: 20})
	c.BindProvider(&fakeProvider{name: "high", priority: 5})

	require.NoError(t, c.Register(m("low", "shared")))
	require.NoError(t, c.Register(m("high", "shared")))

	got, ok := c.Get("shared")
	require.True(t, ok)
	assert.Equal(t, "high", got.Provider)
}

func TestCatalog_GetOwned_OnlyReturnsBoundProviders(t *testing.T) {
	c := New(nil)
	c.BindProvider(&fakeProvider{name: "bound", priority: 10})

	require.NoError(t, c.Register(m("bound", "a")))
	require.NoError(t, c.Register(m("unbound", "b")))

	owned := c.GetOwned()
	require.Len(t, owned, 1)
	assert.Equal(t, "bound", owned[0].Provider)

	assert.Len(t, c.List(), 2)
}

func TestCatalog_Clear_RemovesModelsKeepsProviders(t *testing.T) {
	c := New(nil)
	c.BindProvider(&fakeProvider{name: "p1", priority: 10})
	require.NoError(t, c.Register(m("p1", "a")))

	c.Clear()

	assert.Empty(t, c.List())
	_, ok := c.ProviderCapabilities("p1")
	assert.True(t, ok)
}

func TestCatalog_Handlers_ProviderScopedPreferredOverBare(t *testing.T) {
	c := New(nil)

	bare := &schemas.ModelHandler{ModelID: "m1"}
	c.RegisterHandler(bare)

	scoped := &schemas.ModelHandler{Provider: "p1", ModelID: "m1"}
	c.RegisterHandler(scoped)

	got, ok := c.GetHandler("p1", "m1")
	require.True(t, ok)
	assert.Same(t, scoped, got)

	got, ok = c.GetHandler("p2", "m1")
	require.True(t, ok)
	assert.Same(t, bare, got)
}

func TestCatalog_Overrides_AreIdempotent(t *testing.T) {
	overrides := []schemas.ModelOverride{
		{
			Matcher:   schemas.ModelOverrideMatcher{Provider: "p1"},
			Overrides: map[string]interface{}{"tier": "flagship"},
		},
	}
	c := New(overrides)

	require.NoError(t, c.Register(m("p1", "a")))
	require.NoError(t, c.Register(m("p1", "a")))

	got, ok := c.Get("p1/a")
	require.True(t, ok)
	assert.Equal(t, schemas.TierFlagship, got.Tier)
}

func TestCatalog_DetectCapabilities_ChatExecutorDerivesChat(t *testing.T) {
	caps := DetectCapabilities(&fakeProvider{name: "p1"})
	assert.True(t, caps.Has("chat"))
	assert.False(t, caps.Has("streaming"))
}

func TestCatalog_ProviderCapabilities_UnknownProvider(t *testing.T) {
	c := New(nil)
	_, ok := c.ProviderCapabilities("nope")
	assert.False(t, ok)
}
