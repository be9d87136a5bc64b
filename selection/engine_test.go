package selection

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaymesh/gateway/catalog"
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

func newCatalogWithModels(models ...schemas.ModelInfo) *catalog.Catalog {
	c := catalog.New(nil)
	seen := map[string]bool{}
	for _, m := range models {
		if !seen[m.Provider] {
			c.BindProvider(&fakeProvider{name: m.Provider, priority: 10})
			seen[m.Provider] = true
		}
	}
	for _, m := range models {
		if err := c.Register(m); err != nil {
			panic(err)
		}
	}
	return c
}

func cheapModel(provider, id string) schemas.ModelInfo {
	return schemas.ModelInfo{
		ID:                  id,
		Provider:            provider,
		Capabilities:        schemas.NewStringSet("chat"),
		ContextWindow:       8192,
		Tier:                schemas.TierEfficient,
		Pricing:             schemas.Pricing{Text: &schemas.PriceEntry{Input: 0.1, Output: 0.2}},
		SupportedParameters: schemas.NewStringSet("temperature"),
	}
}

func pricierModel(provider, id string) schemas.ModelInfo {
	m := cheapModel(provider, id)
	m.Pricing.Text = &schemas.PriceEntry{Input: 20, Output: 40}
	m.Tier = schemas.TierFlagship
	return m
}

func TestEngine_Select_PrefersCheaperModelUnderCostWeight(t *testing.T) {
	c := newCatalogWithModels(cheapModel("p1", "cheap"), pricierModel("p1", "costly"))
	e := New(c, nil)

	selected, err := e.Select(schemas.SelectionPredicate{
		Weights: &schemas.Weights{Cost: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, "cheap", selected.Model.ID)
}

func TestEngine_Select_PinnedModelBypassesScoring(t *testing.T) {
	c := newCatalogWithModels(cheapModel("p1", "cheap"), pricierModel("p1", "costly"))
	e := New(c, nil)

	selected, err := e.Select(schemas.SelectionPredicate{Model: "p1/costly"})
	require.NoError(t, err)
	assert.Equal(t, "costly", selected.Model.ID)
	assert.Equal(t, 1.0, selected.Score)
}

func TestEngine_Select_PinnedModelMissingRequiredCapabilityFails(t *testing.T) {
	c := newCatalogWithModels(cheapModel("p1", "cheap"))
	e := New(c, nil)

	_, err := e.Select(schemas.SelectionPredicate{
		Model:    "p1/cheap",
		Required: schemas.NewStringSet("vision"),
	})
	assert.Error(t, err)
}

func TestEngine_Select_NoModelFound(t *testing.T) {
	c := newCatalogWithModels(cheapModel("p1", "cheap"))
	e := New(c, nil)

	_, err := e.Select(schemas.SelectionPredicate{Required: schemas.NewStringSet("vision")})
	assert.ErrorIs(t, err, ErrNoModelFound)
}

func TestEngine_Search_SortedDescendingAndSelectMatchesFirst(t *testing.T) {
	c := newCatalogWithModels(cheapModel("p1", "cheap"), pricierModel("p1", "costly"))
	e := New(c, nil)

	predicate := schemas.SelectionPredicate{Weights: &schemas.Weights{Cost: 1}}
	results, err := e.Search(predicate)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)

	selected, err := e.Select(predicate)
	require.NoError(t, err)
	assert.Equal(t, results[0].Model.ID, selected.Model.ID)
}

func TestEngine_Select_ProvidersDenyExcludesModel(t *testing.T) {
	c := newCatalogWithModels(cheapModel("p1", "a"), cheapModel("p2", "b"))
	e := New(c, nil)

	selected, err := e.Select(schemas.SelectionPredicate{
		Providers: schemas.ProviderFilter{Deny: []string{"p1"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "p2", selected.Model.Provider)
}

func TestEngine_Select_MinContextWindowFiltersSmallerModels(t *testing.T) {
	small := cheapModel("p1", "small")
	small.ContextWindow = 2048
	big := cheapModel("p1", "big")
	big.ContextWindow = 32768

	c := newCatalogWithModels(small, big)
	e := New(c, nil)

	selected, err := e.Select(schemas.SelectionPredicate{MinContextWindow: 16000})
	require.NoError(t, err)
	assert.Equal(t, "big", selected.Model.ID)
}

func TestEngine_Select_RequiredParametersMinusOptionalMustBeSupported(t *testing.T) {
	c := newCatalogWithModels(cheapModel("p1", "m1"))
	e := New(c, nil)

	_, err := e.Select(schemas.SelectionPredicate{
		RequiredParameters: schemas.NewStringSet("temperature", "topK"),
	})
	assert.Error(t, err)

	selected, err := e.Select(schemas.SelectionPredicate{
		RequiredParameters: schemas.NewStringSet("temperature", "topK"),
		OptionalParameters: schemas.NewStringSet("topK"),
	})
	require.NoError(t, err)
	assert.Equal(t, "m1", selected.Model.ID)
}

func TestEngine_WeightResolution_FallsBackToProfileThenDefault(t *testing.T) {
	c := newCatalogWithModels(cheapModel("p1", "m1"))
	e := New(c, WeightProfiles{"fast": {Speed: 1}})

	weights := e.resolveWeights(schemas.SelectionPredicate{WeightProfile: "fast"})
	assert.Equal(t, schemas.Weights{Speed: 1}, weights)

	weights = e.resolveWeights(schemas.SelectionPredicate{WeightProfile: "missing"})
	assert.Equal(t, schemas.DefaultWeights, weights)
}

func TestScoreModel_NoDataYieldsEpsilonFloor(t *testing.T) {
	m := schemas.ModelInfo{ID: "bare", Provider: "p1", Capabilities: schemas.NewStringSet("chat")}
	score := scoreModel(m, schemas.Weights{ContextWindow: 1})
	assert.Equal(t, epsilonScore, score)
}

func TestOptionalMultiplier_RewardsMatchedOptionalCapabilities(t *testing.T) {
	caps := schemas.NewStringSet("chat", "vision")
	predicate := schemas.SelectionPredicate{Optional: schemas.NewStringSet("vision", "tools")}
	mult := optionalMultiplier(caps, schemas.NewStringSet(), predicate)
	assert.InDelta(t, 1.5, mult, 1e-9)
}
