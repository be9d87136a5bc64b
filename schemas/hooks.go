package schemas

import "context"

// Hooks is a struct of optional function pointers the pipeline invokes at
// fixed points in the request lifecycle (§4.8). A nil field is simply
// skipped; invocation order is fixed and must not be reordered by callers.
type Hooks struct {
	// BeforeModelSelection may mutate metadata before the Selection
	// Engine runs.
	BeforeModelSelection func(ctx *GatewayContext, metadata Metadata) (Metadata, error)

	// OnModelSelected may override the selection the engine made.
	OnModelSelected func(ctx *GatewayContext, selected SelectedModel) (*SelectedModel, error)

	// BeforeRequest runs after token/cost estimation and before dispatch;
	// returning an error aborts the request with validation-failed
	// (e.g. a budget check).
	BeforeRequest func(ctx *GatewayContext, selected SelectedModel, tokens Usage, estimatedCost float64) error

	// AfterRequest runs once the realized usage and cost are known. It is
	// not invoked for cancelled or mid-stream-failed operations.
	AfterRequest func(ctx *GatewayContext, selected SelectedModel, usage Usage, cost float64)

	// OnError runs whenever the pipeline catches an exception at any
	// stage, in addition to the error being returned to the caller.
	OnError func(kind ErrorKind, message string, cause error, ctx *GatewayContext)
}

// Merge returns a new Hooks with every field of override that is non-nil
// replacing the corresponding field of h (used by Facade.Extend, §4.10,
// where a child root's hooks layer over the parent's).
func (h Hooks) Merge(override Hooks) Hooks {
	out := h
	if override.BeforeModelSelection != nil {
		out.BeforeModelSelection = override.BeforeModelSelection
	}
	if override.OnModelSelected != nil {
		out.OnModelSelected = override.OnModelSelected
	}
	if override.BeforeRequest != nil {
		out.BeforeRequest = override.BeforeRequest
	}
	if override.AfterRequest != nil {
		out.AfterRequest = override.AfterRequest
	}
	if override.OnError != nil {
		out.OnError = override.OnError
	}
	return out
}

// ProvidedContextFunc is the caller-supplied context callback invoked
// during context assembly (§4.7): it receives the merge of defaults and
// required values and returns the layer to merge on top of them.
type ProvidedContextFunc func(ctx context.Context, defaultsAndRequired map[string]interface{}) (map[string]interface{}, error)

// ProvidedMetadataFunc is the caller-supplied metadata callback invoked
// during metadata assembly, analogous to ProvidedContextFunc.
type ProvidedMetadataFunc func(ctx context.Context, defaultsAndRequired Metadata) (Metadata, error)
