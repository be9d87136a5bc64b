package gateway

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relaymesh/gateway/schemas"
)

func TestMergeMetadata_SetFieldsUnion(t *testing.T) {
	base := schemas.Metadata{SelectionPredicate: schemas.SelectionPredicate{
		Required: schemas.NewStringSet("chat"),
		Optional: schemas.NewStringSet("vision"),
	}}
	overlay := schemas.Metadata{SelectionPredicate: schemas.SelectionPredicate{
		Required: schemas.NewStringSet("tools"),
		Optional: schemas.NewStringSet("json"),
	}}
	merged := mergeMetadata(base, overlay)
	assert.True(t, merged.Required.Has("chat"))
	assert.True(t, merged.Required.Has("tools"))
	assert.True(t, merged.Optional.Has("vision"))
	assert.True(t, merged.Optional.Has("json"))
}

func TestMergeMetadata_DenyAlwaysWinsOverAllow(t *testing.T) {
	base := schemas.Metadata{SelectionPredicate: schemas.SelectionPredicate{
		Providers: schemas.ProviderFilter{Allow: []string{"p1", "p2"}},
	}}
	overlay := schemas.Metadata{SelectionPredicate: schemas.SelectionPredicate{
		Providers: schemas.ProviderFilter{Deny: []string{"p1"}},
	}}
	merged := mergeMetadata(base, overlay)
	assert.ElementsMatch(t, []string{"p2"}, merged.Providers.Allow)
	assert.ElementsMatch(t, []string{"p1"}, merged.Providers.Deny)
}

func TestMergeMetadata_WeightsAverageDefinedAxesOnly(t *testing.T) {
	base := schemas.Metadata{SelectionPredicate: schemas.SelectionPredicate{
		Weights: &schemas.Weights{Cost: 1.0, Speed: 0},
	}}
	overlay := schemas.Metadata{SelectionPredicate: schemas.SelectionPredicate{
		Weights: &schemas.Weights{Cost: 0, Speed: 0.4},
	}}
	merged := mergeMetadata(base, overlay)
	// Cost is defined on base only -> passes through unaveraged; Speed
	// likewise defined on overlay only.
	assert.Equal(t, 1.0, merged.Weights.Cost)
	assert.Equal(t, 0.4, merged.Weights.Speed)
}

func TestMergeMetadata_BudgetTakesMinPerRequestAndMaxPerMillion(t *testing.T) {
	lower := 0.5
	higher := 2.0
	base := schemas.Metadata{SelectionPredicate: schemas.SelectionPredicate{
		Budget: schemas.Budget{MaxCostPerRequest: &higher, MaxCostPerMillionTokens: &lower},
	}}
	overlay := schemas.Metadata{SelectionPredicate: schemas.SelectionPredicate{
		Budget: schemas.Budget{MaxCostPerRequest: &lower, MaxCostPerMillionTokens: &higher},
	}}
	merged := mergeMetadata(base, overlay)
	assert.Equal(t, lower, *merged.Budget.MaxCostPerRequest)
	assert.Equal(t, higher, *merged.Budget.MaxCostPerMillionTokens)
}

func TestMergeMetadata_LaterWinsForScalarFields(t *testing.T) {
	base := schemas.Metadata{Model: "p1/base", ContextWindow: 1000}
	overlay := schemas.Metadata{Model: "p1/overlay"}
	merged := mergeMetadata(base, overlay)
	assert.Equal(t, "p1/overlay", merged.Model)
	assert.Equal(t, 1000, merged.ContextWindow) // overlay left it unset, base value preserved
}

func TestMergeMetadata_IsAssociativeForSetUnionFields(t *testing.T) {
	a := schemas.Metadata{SelectionPredicate: schemas.SelectionPredicate{Required: schemas.NewStringSet("chat")}}
	b := schemas.Metadata{SelectionPredicate: schemas.SelectionPredicate{Required: schemas.NewStringSet("vision")}}
	c := schemas.Metadata{SelectionPredicate: schemas.SelectionPredicate{Required: schemas.NewStringSet("tools")}}

	left := mergeMetadata(mergeMetadata(a, b), c)
	right := mergeMetadata(a, mergeMetadata(b, c))

	assert.ElementsMatch(t, []string{"chat", "vision", "tools"}, left.Required.Slice())
	assert.ElementsMatch(t, left.Required.Slice(), right.Required.Slice())
}

func TestBuildContext_RequiredAlwaysWinsOverDefaultAndProvided(t *testing.T) {
	cfg := AssemblerConfig{
		DefaultContext: map[string]interface{}{"tenant": "default-tenant", "region": "us"},
		ProvidedContext: func(ctx context.Context, defaultsAndRequired map[string]interface{}) (map[string]interface{}, error) {
			return map[string]interface{}{"tenant": "provided-tenant", "trace": "xyz"}, nil
		},
	}
	gctx, err := cfg.buildContext(nil, schemas.NoDeadline, map[string]interface{}{"tenant": "required-tenant"}, nil)
	assert := assert.New(t)
	assert.NoError(err)
	assert.Equal("required-tenant", gctx.Value("tenant"))
	assert.Equal("xyz", gctx.Value("trace"))
	assert.Equal("us", gctx.Value("region"))
}
