package gateway

import (
	"context"
	"time"

	"github.com/relaymesh/gateway/schemas"
)

// OperationSpec is everything operation-family-specific the generic
// Operation Pipeline (C8) needs: its static capability/parameter
// requirements, how to derive more of each from the request payload, how
// to reach a ModelHandler's/Provider's dispatch methods for this family,
// and the chunk<->response adapters §4.8a's fallback ladder needs. A
// family that does not support the conversion (embedding) simply leaves
// ChunksToResponse/ResponseToChunks nil.
type OperationSpec[Req any, Resp any, Chunk any] struct {
	Operation schemas.Operation

	StaticCapabilities schemas.StringSet
	StaticParameters   schemas.StringSet

	DerivedCapabilities func(req *Req) schemas.StringSet
	DerivedParameters   func(req *Req) schemas.StringSet

	HandlerOps func(h *schemas.ModelHandler) *schemas.OperationHandler[Req, Resp, Chunk]

	ProviderGet    func(p schemas.Provider) func(ctx context.Context, req *Req) (*Resp, error)
	ProviderStream func(p schemas.Provider) func(ctx context.Context, req *Req) (<-chan *Chunk, error)

	ChunksToResponse func(model string, chunks []*Chunk) *Resp
	ResponseToChunks func(resp *Resp) []*Chunk

	// ValidateRequest runs family-specific structural validation (e.g. tool
	// parameter JSON Schema) before model selection. Left nil for families
	// with nothing to validate beyond the common decode.
	ValidateRequest func(req *Req) error

	ExtractUsage func(resp *Resp) schemas.Usage
	ChunkUsage   func(chunk *Chunk) schemas.Usage

	SetModel      func(resp *Resp, model string)
	SetChunkModel func(chunk *Chunk, model string)
}

// pipeline is the generic Operation Pipeline (C8), one instance per
// operation family, closed over the Root it dispatches through.
type pipeline[Req any, Resp any, Chunk any] struct {
	root *Root
	spec OperationSpec[Req, Resp, Chunk]
}

func newPipeline[Req any, Resp any, Chunk any](root *Root, spec OperationSpec[Req, Resp, Chunk]) *pipeline[Req, Resp, Chunk] {
	return &pipeline[Req, Resp, Chunk]{root: root, spec: spec}
}

// buildPredicate runs §4.8 step 2: union the static and payload-derived
// capability/parameter requirements with the caller's own metadata.
func (p *pipeline[Req, Resp, Chunk]) buildPredicate(req *Req, metadata schemas.Metadata) schemas.SelectionPredicate {
	required := p.spec.StaticCapabilities.Union(metadata.Required)
	if p.spec.DerivedCapabilities != nil {
		required = required.Union(p.spec.DerivedCapabilities(req))
	}
	requiredParams := p.spec.StaticParameters.Union(metadata.RequiredParameters)
	if p.spec.DerivedParameters != nil {
		requiredParams = requiredParams.Union(p.spec.DerivedParameters(req))
	}

	predicate := metadata.SelectionPredicate
	predicate.Required = required
	predicate.RequiredParameters = requiredParams
	return predicate
}

// resolve runs §4.8 steps 2-6: the beforeModelSelection hook, pinned
// short-circuit or full selection, model-id injection, and the
// onModelSelected hook.
func (p *pipeline[Req, Resp, Chunk]) resolve(gctx *schemas.GatewayContext, req *Req, metadata schemas.Metadata) (*schemas.SelectedModel, schemas.Metadata, error) {
	if p.root.hooks.BeforeModelSelection != nil {
		updated, err := p.root.hooks.BeforeModelSelection(gctx, metadata)
		if err != nil {
			return nil, metadata, schemas.NewGatewayError(schemas.ErrorKindValidationFailed, string(p.spec.Operation), "beforeModelSelection hook failed", err)
		}
		metadata = updated
	}

	predicate := p.buildPredicate(req, metadata)

	selected, err := p.root.selector.Select(predicate)
	if err != nil {
		return nil, metadata, schemas.NewGatewayError(schemas.ErrorKindNoModelFound, string(p.spec.Operation), "no model satisfies this "+string(p.spec.Operation)+" request", err)
	}

	metadata.Model = selected.Model.Provider + "/" + selected.Model.ID
	gctx.SetMetadata(metadata)

	if p.root.hooks.OnModelSelected != nil {
		override, err := p.root.hooks.OnModelSelected(gctx, *selected)
		if err != nil {
			return nil, metadata, schemas.NewGatewayError(schemas.ErrorKindValidationFailed, string(p.spec.Operation), "onModelSelected hook failed", err)
		}
		if override != nil {
			selected = override
			metadata.Model = selected.Model.Provider + "/" + selected.Model.ID
			gctx.SetMetadata(metadata)
		}
	}
	return selected, metadata, nil
}

// Get runs the full non-streaming template algorithm (§4.8 steps 1-10,12,13).
func (p *pipeline[Req, Resp, Chunk]) Get(ctx context.Context, req *Req, required schemas.Metadata) (*Resp, error) {
	start := time.Now()

	gctx, err := p.root.assembler.buildContext(ctx, schemas.NoDeadline, nil, p.root)
	if err != nil {
		return nil, p.fail(gctx, err)
	}
	metadata, err := p.root.assembler.buildMetadata(gctx, required)
	if err != nil {
		return nil, p.fail(gctx, err)
	}
	if metadata.Model == "" {
		metadata.Model = reqExplicitModel(req)
	}
	gctx.SetMetadata(metadata)
	gctx = gctx.WithExecutor(p.root, p.root, p.root)

	if p.spec.ValidateRequest != nil {
		if err := p.spec.ValidateRequest(req); err != nil {
			return nil, p.fail(gctx, schemas.NewGatewayError(schemas.ErrorKindValidationFailed, string(p.spec.Operation), "request failed validation", err))
		}
	}

	selected, metadata, err := p.pinnedOrResolve(gctx, req, metadata)
	if err != nil {
		return nil, p.fail(gctx, err)
	}

	usage, estErr := p.root.tokens.Estimate(req)
	if estErr != nil {
		return nil, p.fail(gctx, schemas.NewGatewayError(schemas.ErrorKindValidationFailed, string(p.spec.Operation), "token estimation failed", estErr))
	}
	estimatedCost := p.root.cost.Calculate(selected.Model, usage)

	if p.root.hooks.BeforeRequest != nil {
		if err := p.root.hooks.BeforeRequest(gctx, *selected, usage, estimatedCost); err != nil {
			return nil, p.fail(gctx, schemas.NewGatewayError(schemas.ErrorKindValidationFailed, string(p.spec.Operation), "beforeRequest hook rejected the request", err))
		}
	}
	gctx.MarkBuilt()

	if gctx.Err() != nil {
		return nil, p.fail(gctx, schemas.NewGatewayError(schemas.ErrorKindCancelled, string(p.spec.Operation), "operation cancelled", gctx.Err()))
	}

	resp, dispatchErr := p.dispatchGet(gctx, selected, req)
	if dispatchErr != nil {
		return nil, p.fail(gctx, p.wrapProviderError(dispatchErr))
	}
	if p.spec.SetModel != nil {
		p.spec.SetModel(resp, metadata.Model)
	}

	realized := usage
	if p.spec.ExtractUsage != nil {
		if extracted := p.spec.ExtractUsage(resp); !usageIsEmpty(extracted) {
			realized = extracted
		}
	}
	cost := p.root.cost.Calculate(selected.Model, realized)

	if p.root.hooks.AfterRequest != nil {
		p.root.hooks.AfterRequest(gctx, *selected, realized, cost)
	}
	p.root.stats.Record(cost, time.Since(start))
	return resp, nil
}

// Stream runs the full streaming template algorithm (§4.8 steps 1-9, 11-13).
// Dispatch and hook invocation up through beforeRequest happen synchronously
// so a rejected request never returns a channel at all; chunk relay, usage
// accumulation, and afterRequest/stats happen in a background goroutine so
// the caller can begin consuming chunks immediately.
func (p *pipeline[Req, Resp, Chunk]) Stream(ctx context.Context, req *Req, required schemas.Metadata) (<-chan *Chunk, error) {
	start := time.Now()

	gctx, err := p.root.assembler.buildContext(ctx, schemas.NoDeadline, nil, p.root)
	if err != nil {
		return nil, p.fail(gctx, err)
	}
	metadata, err := p.root.assembler.buildMetadata(gctx, required)
	if err != nil {
		return nil, p.fail(gctx, err)
	}
	if metadata.Model == "" {
		metadata.Model = reqExplicitModel(req)
	}
	gctx.SetMetadata(metadata)
	gctx = gctx.WithExecutor(p.root, p.root, p.root)

	if p.spec.ValidateRequest != nil {
		if err := p.spec.ValidateRequest(req); err != nil {
			return nil, p.fail(gctx, schemas.NewGatewayError(schemas.ErrorKindValidationFailed, string(p.spec.Operation), "request failed validation", err))
		}
	}

	selected, metadata, err := p.pinnedOrResolve(gctx, req, metadata)
	if err != nil {
		return nil, p.fail(gctx, err)
	}

	usage, estErr := p.root.tokens.Estimate(req)
	if estErr != nil {
		return nil, p.fail(gctx, schemas.NewGatewayError(schemas.ErrorKindValidationFailed, string(p.spec.Operation), "token estimation failed", estErr))
	}
	estimatedCost := p.root.cost.Calculate(selected.Model, usage)

	if p.root.hooks.BeforeRequest != nil {
		if err := p.root.hooks.BeforeRequest(gctx, *selected, usage, estimatedCost); err != nil {
			return nil, p.fail(gctx, schemas.NewGatewayError(schemas.ErrorKindValidationFailed, string(p.spec.Operation), "beforeRequest hook rejected the request", err))
		}
	}
	gctx.MarkBuilt()

	raw, dispatchErr := p.dispatchStream(gctx, selected, req)
	if dispatchErr != nil {
		return nil, p.fail(gctx, p.wrapProviderError(dispatchErr))
	}

	out := make(chan *Chunk)
	go func() {
		defer close(out)
		acc := schemas.Usage{}
		for chunk := range raw {
			if p.spec.SetChunkModel != nil {
				p.spec.SetChunkModel(chunk, metadata.Model)
			}
			if p.spec.ChunkUsage != nil {
				acc = accumulateUsage(acc, p.spec.ChunkUsage(chunk))
			}
			select {
			case out <- chunk:
			case <-gctx.Done():
				p.reportCancelled(gctx)
				return
			}
		}
		if gctx.Err() != nil {
			p.reportCancelled(gctx)
			return
		}

		final := usage
		if !usageIsEmpty(acc) {
			final = acc
		}
		cost := p.root.cost.Calculate(selected.Model, final)
		if p.root.hooks.AfterRequest != nil {
			p.root.hooks.AfterRequest(gctx, *selected, final, cost)
		}
		p.root.stats.Record(cost, time.Since(start))
	}()
	return out, nil
}

func (p *pipeline[Req, Resp, Chunk]) reportCancelled(gctx *schemas.GatewayContext) {
	if p.root.hooks.OnError != nil {
		p.root.hooks.OnError(schemas.ErrorKindCancelled, "operation cancelled", gctx.Err(), gctx)
	}
}

// pinnedOrResolve honors an explicit model id in metadata.Model (set either
// by the caller's required metadata or the request payload) via the
// Selection Engine's pinned path; otherwise it runs the full predicate
// build and scoring pass.
func (p *pipeline[Req, Resp, Chunk]) pinnedOrResolve(gctx *schemas.GatewayContext, req *Req, metadata schemas.Metadata) (*schemas.SelectedModel, schemas.Metadata, error) {
	if metadata.Model != "" {
		pinnedPredicate := metadata.SelectionPredicate
		pinnedPredicate.Model = metadata.Model
		pinnedPredicate.Required = p.spec.StaticCapabilities.Union(metadata.Required)
		if p.spec.DerivedCapabilities != nil {
			pinnedPredicate.Required = pinnedPredicate.Required.Union(p.spec.DerivedCapabilities(req))
		}
		selected, err := p.root.selector.Select(pinnedPredicate)
		if err != nil {
			return nil, metadata, schemas.NewGatewayError(schemas.ErrorKindProviderCapabilityMissing, string(p.spec.Operation), "explicit model does not support this operation", err)
		}
		metadata.Model = selected.Model.Provider + "/" + selected.Model.ID
		gctx.SetMetadata(metadata)
		return selected, metadata, nil
	}
	return p.resolve(gctx, req, metadata)
}

func (p *pipeline[Req, Resp, Chunk]) dispatchGet(gctx *schemas.GatewayContext, selected *schemas.SelectedModel, req *Req) (*Resp, error) {
	handler, _ := p.root.catalog.GetHandler(selected.Model.Provider, selected.Model.ID)

	if handler != nil {
		if ops := p.spec.HandlerOps(handler); ops != nil && ops.Get != nil {
			return ops.Get(gctx, req)
		}
	}
	if p.spec.ProviderGet != nil {
		if exec := p.spec.ProviderGet(selected.Provider); exec != nil {
			return exec(gctx, req)
		}
	}
	if handler != nil && p.spec.ChunksToResponse != nil {
		if ops := p.spec.HandlerOps(handler); ops != nil && ops.Stream != nil {
			chunks, err := ops.Stream(gctx, req)
			if err != nil {
				return nil, err
			}
			return p.spec.ChunksToResponse(selected.Model.Provider+"/"+selected.Model.ID, drain(chunks)), nil
		}
	}
	if p.spec.ProviderStream != nil && p.spec.ChunksToResponse != nil {
		if stream := p.spec.ProviderStream(selected.Provider); stream != nil {
			chunks, err := stream(gctx, req)
			if err != nil {
				return nil, err
			}
			return p.spec.ChunksToResponse(selected.Model.Provider+"/"+selected.Model.ID, drain(chunks)), nil
		}
	}
	return nil, schemas.NewGatewayError(schemas.ErrorKindDispatchUnsupported, string(p.spec.Operation), "provider does not support this operation and no fallback available", nil)
}

func (p *pipeline[Req, Resp, Chunk]) dispatchStream(gctx *schemas.GatewayContext, selected *schemas.SelectedModel, req *Req) (<-chan *Chunk, error) {
	handler, _ := p.root.catalog.GetHandler(selected.Model.Provider, selected.Model.ID)

	if handler != nil {
		if ops := p.spec.HandlerOps(handler); ops != nil && ops.Stream != nil {
			return ops.Stream(gctx, req)
		}
	}
	if p.spec.ProviderStream != nil {
		if stream := p.spec.ProviderStream(selected.Provider); stream != nil {
			return stream(gctx, req)
		}
	}
	if handler != nil && p.spec.ResponseToChunks != nil {
		if ops := p.spec.HandlerOps(handler); ops != nil && ops.Get != nil {
			resp, err := ops.Get(gctx, req)
			if err != nil {
				return nil, err
			}
			return toChannel(p.spec.ResponseToChunks(resp)), nil
		}
	}
	if p.spec.ProviderGet != nil && p.spec.ResponseToChunks != nil {
		if exec := p.spec.ProviderGet(selected.Provider); exec != nil {
			resp, err := exec(gctx, req)
			if err != nil {
				return nil, err
			}
			return toChannel(p.spec.ResponseToChunks(resp)), nil
		}
	}
	return nil, schemas.NewGatewayError(schemas.ErrorKindDispatchUnsupported, string(p.spec.Operation), "provider does not support this operation and no fallback available", nil)
}

func (p *pipeline[Req, Resp, Chunk]) wrapProviderError(err error) *schemas.GatewayError {
	if ge, ok := err.(*schemas.GatewayError); ok {
		return ge
	}
	return schemas.NewGatewayError(schemas.ErrorKindProviderError, string(p.spec.Operation), err.Error(), err)
}

func (p *pipeline[Req, Resp, Chunk]) fail(gctx *schemas.GatewayContext, err error) *schemas.GatewayError {
	ge := p.wrapProviderError(err)
	if p.root.hooks.OnError != nil {
		p.root.hooks.OnError(ge.Kind, ge.Err.Message, ge.Err.Err, gctx)
	}
	return ge
}

func drain[C any](chunks <-chan *C) []*C {
	var all []*C
	for c := range chunks {
		all = append(all, c)
	}
	return all
}

func toChannel[C any](chunks []*C) <-chan *C {
	ch := make(chan *C, len(chunks))
	for _, c := range chunks {
		ch <- c
	}
	close(ch)
	return ch
}

// reqExplicitModel reads a requestCommon-embedding request's own Model
// field via the ExplicitModel() method every operation-family request
// type exposes. The pipeline's Req type parameter is unconstrained, so the
// method is found by a runtime type assertion; a request type without it
// yields "" (no explicit model).
func reqExplicitModel[Req any](req *Req) string {
	if m, ok := any(req).(explicitModeler); ok {
		return m.ExplicitModel()
	}
	return ""
}

type explicitModeler interface {
	ExplicitModel() string
}
