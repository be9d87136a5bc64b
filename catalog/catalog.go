// Package catalog implements the Model Catalog (C1) and Capability
// Detector (C2): an in-memory, two-key-indexed store of ModelInfo with
// merge-on-insert semantics, plus provider capability derivation.
package catalog

import (
	"sort"
	"sync"

	"github.com/relaymesh/gateway/schemas"
)

// DefaultProviderPriority is used when a provider does not configure one.
const DefaultProviderPriority = 10

type boundProvider struct {
	provider     schemas.Provider
	priority     int
	order        int
	capabilities schemas.StringSet
}

type modelEntry struct {
	model schemas.ModelInfo
	order int
}

// Catalog is the process-wide, merge-on-insert model store (§4.1). The
// zero value is not usable; build one with New.
type Catalog struct {
	mu sync.RWMutex

	overrides []schemas.ModelOverride

	providers     map[string]*boundProvider
	providerOrder int

	// handlers is keyed by both the bare modelId and "provider/modelId"
	// (§3's two-key ModelHandler scheme); GetHandler checks the more
	// specific provider/modelId key first.
	handlers map[string]*schemas.ModelHandler

	byFullKey map[string]*modelEntry
	byBareID  map[string][]*modelEntry

	registrationOrder int
}

// New builds an empty Catalog configured with the given overrides, applied
// to every model registered from this point on.
func New(overrides []schemas.ModelOverride) *Catalog {
	return &Catalog{
		overrides: overrides,
		providers: make(map[string]*boundProvider),
		handlers:  make(map[string]*schemas.ModelHandler),
		byFullKey: make(map[string]*modelEntry),
		byBareID:  make(map[string][]*modelEntry),
	}
}

// BindProvider registers a live provider instance, caching its capability
// set at bind time (C2). Binding order is the tie-break used when a bare
// model id is ambiguous across providers of equal priority.
func (c *Catalog) BindProvider(p schemas.Provider) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.providerOrder++
	priority := p.Priority()
	if priority == 0 {
		priority = DefaultProviderPriority
	}
	c.providers[p.Name()] = &boundProvider{
		provider:     p,
		priority:     priority,
		order:        c.providerOrder,
		capabilities: DetectCapabilities(p),
	}
}

// Providers returns every bound provider in ascending (priority, bind
// order): the same order the Refresh Coordinator (C4) walks them in.
func (c *Catalog) Providers() []schemas.Provider {
	c.mu.RLock()
	defer c.mu.RUnlock()
	list := make([]*boundProvider, 0, len(c.providers))
	for _, bp := range c.providers {
		list = append(list, bp)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].priority != list[j].priority {
			return list[i].priority < list[j].priority
		}
		return list[i].order < list[j].order
	})
	out := make([]schemas.Provider, len(list))
	for i, bp := range list {
		out[i] = bp.provider
	}
	return out
}

// ProviderCapabilities returns the cached capability set for a bound
// provider.
func (c *Catalog) ProviderCapabilities(name string) (schemas.StringSet, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	bp, ok := c.providers[name]
	if !ok {
		return nil, false
	}
	return bp.capabilities, true
}

// Register inserts or merges model into the catalog (§4.1). It fails only
// when the model is structurally invalid (missing id/provider, or
// contextWindow < 1); colliding with an existing (provider, id) entry is
// never a failure, it merges.
func (c *Catalog) Register(model schemas.ModelInfo) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registerLocked(model)
}

// RegisterAll registers every model in models, stopping at the first
// validation failure.
func (c *Catalog) RegisterAll(models []schemas.ModelInfo) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range models {
		if err := c.registerLocked(m); err != nil {
			return err
		}
	}
	return nil
}

func (c *Catalog) registerLocked(model schemas.ModelInfo) error {
	patched, err := ApplyOverrides(model, c.overrides)
	if err != nil {
		return err
	}
	if err := patched.Validate(); err != nil {
		return err
	}

	bareID, fullKey := patched.Key()

	if existing, ok := c.byFullKey[fullKey]; ok {
		existing.model = mergeModelInfo(existing.model, patched)
		return nil
	}

	c.registrationOrder++
	entry := &modelEntry{model: patched, order: c.registrationOrder}
	c.byFullKey[fullKey] = entry
	c.byBareID[bareID] = append(c.byBareID[bareID], entry)
	return nil
}

// Get looks up a model by bare id or "provider/id". An ambiguous bare id
// resolves to the lowest-numeric-priority bound provider, ties broken by
// provider bind order.
func (c *Catalog) Get(id string) (schemas.ModelInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.getLocked(id)
}

func (c *Catalog) getLocked(id string) (schemas.ModelInfo, bool) {
	if e, ok := c.byFullKey[id]; ok {
		return e.model, true
	}
	candidates := c.byBareID[id]
	if len(candidates) == 0 {
		return schemas.ModelInfo{}, false
	}
	best := candidates[0]
	bestPriority, bestOrder := c.providerRank(best.model.Provider)
	for _, cand := range candidates[1:] {
		p, o := c.providerRank(cand.model.Provider)
		if p < bestPriority || (p == bestPriority && o < bestOrder) {
			best, bestPriority, bestOrder = cand, p, o
		}
	}
	return best.model, true
}

func (c *Catalog) providerRank(name string) (priority, order int) {
	if bp, ok := c.providers[name]; ok {
		return bp.priority, bp.order
	}
	// Unbound providers rank behind every bound one.
	return DefaultProviderPriority + 1, 1<<31 - 1
}

// GetOwned returns every model whose provider is currently bound.
func (c *Catalog) GetOwned() []schemas.ModelInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]schemas.ModelInfo, 0, len(c.byFullKey))
	for _, e := range c.byFullKey {
		if _, bound := c.providers[e.model.Provider]; bound {
			out = append(out, e.model)
		}
	}
	sortModelsDeterministic(out)
	return out
}

// CatalogEntry is one owned model plus the bookkeeping the Selection Engine
// needs to break ties deterministically: the model's own registration
// order and its provider's priority/bind order.
type CatalogEntry struct {
	Model             schemas.ModelInfo
	RegistrationOrder int
	ProviderPriority  int
	ProviderOrder     int
}

// Entries returns every owned model (provider currently bound) together
// with its tie-break bookkeeping, for the Selection Engine's filter/score
// pass.
func (c *Catalog) Entries() []CatalogEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]CatalogEntry, 0, len(c.byFullKey))
	for _, e := range c.byFullKey {
		bp, bound := c.providers[e.model.Provider]
		if !bound {
			continue
		}
		out = append(out, CatalogEntry{
			Model:             e.model,
			RegistrationOrder: e.order,
			ProviderPriority:  bp.priority,
			ProviderOrder:     bp.order,
		})
	}
	return out
}

// List returns every registered model, bound or not.
func (c *Catalog) List() []schemas.ModelInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]schemas.ModelInfo, 0, len(c.byFullKey))
	for _, e := range c.byFullKey {
		out = append(out, e.model)
	}
	sortModelsDeterministic(out)
	return out
}

func sortModelsDeterministic(models []schemas.ModelInfo) {
	sort.Slice(models, func(i, j int) bool {
		if models[i].Provider != models[j].Provider {
			return models[i].Provider < models[j].Provider
		}
		return models[i].ID < models[j].ID
	})
}

// Clear discards every registered model (but leaves bound providers and
// handlers untouched).
func (c *Catalog) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byFullKey = make(map[string]*modelEntry)
	c.byBareID = make(map[string][]*modelEntry)
	c.registrationOrder = 0
}

// swapModels atomically replaces the catalog's entire model store with
// scratch's (§4.4's "atomic swap of the backing store, never a
// clear-then-rebuild in place"). A concurrent List/Get/Entries call sees
// either the complete pre-refresh or complete post-refresh model set, at
// no point an empty or partially rebuilt one, because the replacement
// happens under a single lock acquisition rather than a Clear followed by
// a loop of individual Registers.
func (c *Catalog) swapModels(scratch *Catalog) {
	scratch.mu.RLock()
	byFullKey, byBareID, order := scratch.byFullKey, scratch.byBareID, scratch.registrationOrder
	scratch.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.byFullKey = byFullKey
	c.byBareID = byBareID
	c.registrationOrder = order
}

// RegisterHandler installs a per-model dispatch override, indexed under
// both of its keys.
func (c *Catalog) RegisterHandler(h *schemas.ModelHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	bareID, fullID := h.Key()
	c.handlers[fullID] = h
	if _, exists := c.handlers[bareID]; !exists {
		c.handlers[bareID] = h
	}
}

// Handlers returns every distinct registered ModelHandler, deduplicated
// across its bare-id and provider-scoped keys (RegisterHandler indexes
// the same handler under both). Used by Extend (§4.10) to carry a
// parent's handlers into a child catalog.
func (c *Catalog) Handlers() []*schemas.ModelHandler {
	c.mu.RLock()
	defer c.mu.RUnlock()
	seen := make(map[*schemas.ModelHandler]bool, len(c.handlers))
	out := make([]*schemas.ModelHandler, 0, len(c.handlers))
	for _, h := range c.handlers {
		if seen[h] {
			continue
		}
		seen[h] = true
		out = append(out, h)
	}
	return out
}

// GetHandler looks up a handler for (provider, id), preferring the more
// specific provider-scoped registration over a bare-id one.
func (c *Catalog) GetHandler(provider, id string) (*schemas.ModelHandler, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if h, ok := c.handlers[provider+"/"+id]; ok {
		return h, true
	}
	if h, ok := c.handlers[id]; ok {
		return h, true
	}
	return nil, false
}

// GetProviderFor resolves modelID to its bound provider, returning the
// canonical "provider/id" key alongside it.
func (c *Catalog) GetProviderFor(modelID string) (key string, provider schemas.Provider, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	model, found := c.getLocked(modelID)
	if !found {
		return "", nil, false
	}
	bp, bound := c.providers[model.Provider]
	if !bound {
		return "", nil, false
	}
	return model.Provider + "/" + model.ID, bp.provider, true
}
