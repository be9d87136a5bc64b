package gateway

import (
	"context"

	"github.com/relaymesh/gateway/catalog"
	"github.com/relaymesh/gateway/cost"
	"github.com/relaymesh/gateway/schemas"
	"github.com/relaymesh/gateway/selection"
	"github.com/relaymesh/gateway/tokens"
)

// Root is the Facade (C10): one entry point per operation family, plus the
// Catalog, assembler configuration, hook table, and statistics every
// facade method shares.
type Root struct {
	catalog  *catalog.Catalog
	selector *selection.Engine
	tokens   *tokens.Estimator
	cost     *cost.Calculator
	stats    *Stats
	logger   schemas.Logger

	hooks     schemas.Hooks
	assembler AssemblerConfig

	config    GatewayConfig
	overrides []schemas.ModelOverride

	chat          *pipeline[schemas.ChatRequest, schemas.ChatResponse, schemas.ChatChunk]
	embedding     *pipeline[schemas.EmbeddingRequest, schemas.EmbeddingResponse, schemas.EmbeddingResponse]
	imageGenerate *pipeline[schemas.ImageGenerateRequest, schemas.ImageResponse, schemas.ImageChunk]
	imageEdit     *pipeline[schemas.ImageEditRequest, schemas.ImageResponse, schemas.ImageChunk]
	imageAnalyze  *pipeline[schemas.ChatRequest, schemas.ChatResponse, schemas.ChatChunk]
	speech        *pipeline[schemas.SpeechRequest, schemas.SpeechResponse, schemas.SpeechResponse]
	transcribe    *pipeline[schemas.TranscriptionRequest, schemas.TranscriptionResponse, schemas.TranscriptionChunk]
}

func modelOverridesFromConfig(cfgs []ModelOverrideConfig) []schemas.ModelOverride {
	out := make([]schemas.ModelOverride, len(cfgs))
	for i, c := range cfgs {
		out[i] = schemas.ModelOverride{
			Matcher: schemas.ModelOverrideMatcher{
				Provider:     c.Provider,
				ModelID:      c.ModelID,
				ModelPattern: c.ModelPattern,
			},
			Overrides: c.Overrides,
		}
	}
	return out
}

// NewRoot builds a Facade root from cfg. Hooks and ModelHandlers are
// registered separately via SetHooks/RegisterHandler since they aren't data
// GatewayConfig's YAML shape carries.
func NewRoot(cfg GatewayConfig) (*Root, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = schemas.NoOpLogger{}
	}

	overrides := modelOverridesFromConfig(cfg.Overrides)
	cat := catalog.New(overrides)

	profiles := selection.WeightProfiles{}
	for k, v := range cfg.WeightProfiles {
		profiles[k] = v
	}
	if _, ok := profiles[""]; !ok {
		weights := cfg.DefaultWeights
		if weights == (schemas.Weights{}) {
			weights = schemas.DefaultWeights
		}
		profiles[""] = weights
	}

	root := &Root{
		catalog:   cat,
		selector:  selection.New(cat, profiles),
		tokens:    tokens.NewEstimator(cfg.TokenTuning),
		cost:      cost.NewCalculator(),
		stats:     NewStats(),
		logger:    logger,
		config:    cfg,
		overrides: overrides,
		assembler: AssemblerConfig{
			DefaultContext:  cfg.DefaultContext,
			DefaultMetadata: cfg.DefaultMetadata,
		},
	}
	root.wirePipelines()
	return root, nil
}

// BindProvider registers a live provider with the catalog.
func (r *Root) BindProvider(p schemas.Provider) { r.catalog.BindProvider(p) }

// RegisterModel inserts or merges a model into the catalog.
func (r *Root) RegisterModel(m schemas.ModelInfo) error { return r.catalog.Register(m) }

// RegisterHandler installs a per-model dispatch override.
func (r *Root) RegisterHandler(h *schemas.ModelHandler) { r.catalog.RegisterHandler(h) }

// SetHooks installs the facade's hook table.
func (r *Root) SetHooks(hooks schemas.Hooks) { r.hooks = hooks }

// SetProvidedCallbacks installs the context/metadata provided* callbacks.
func (r *Root) SetProvidedCallbacks(context schemas.ProvidedContextFunc, metadata schemas.ProvidedMetadataFunc) {
	r.assembler.ProvidedContext = context
	r.assembler.ProvidedMetadata = metadata
}

// Refresh runs the Refresh Coordinator (C4) over the facade's catalog.
func (r *Root) Refresh(ctx context.Context, sources []schemas.ModelSource) error {
	return catalog.Refresh(ctx, r.catalog, catalog.RefreshConfig{
		Sources:                      sources,
		DefaultInputPricePerMillion:  r.config.DefaultInputPricePerMillion,
		DefaultOutputPricePerMillion: r.config.DefaultOutputPricePerMillion,
		DefaultContextWindow:         r.config.DefaultContextWindow,
		Logger:                       r.logger,
	})
}

// Stats returns the current Statistics Aggregator snapshot.
func (r *Root) Stats() Snapshot { return r.stats.Snapshot(r.catalog) }

// Catalog exposes the underlying Model Catalog for direct inspection
// (listing, pagination) without a facade round-trip.
func (r *Root) Catalog() *catalog.Catalog { return r.catalog }

// Extend implements §4.10's extend(config): a child root that shares no
// mutable state with its parent. Providers are rebound and every
// currently-registered model and handler re-registered into the child's own
// catalog; overrides are concatenated parent-first, child-last. The child's
// logger, token tuning, default prices and default context window are taken
// from cfg, falling back to the parent's only when left zero; token tuning
// tables are not combined. A Root holds no model sources, so none are
// carried over. Contexts and metadata merge per §4.7; hooks layer the
// child's over the parent's via Hooks.Merge.
func (r *Root) Extend(cfg GatewayConfig) (*Root, error) {
	mergedOverrides := append(append([]ModelOverrideConfig{}, r.config.Overrides...), cfg.Overrides...)
	childCfg := cfg
	childCfg.Overrides = mergedOverrides
	if childCfg.Logger == nil {
		childCfg.Logger = r.logger
	}
	if childCfg.TokenTuning == (tokens.Tuning{}) {
		childCfg.TokenTuning = r.config.TokenTuning
	}
	if childCfg.DefaultInputPricePerMillion == 0 {
		childCfg.DefaultInputPricePerMillion = r.config.DefaultInputPricePerMillion
	}
	if childCfg.DefaultOutputPricePerMillion == 0 {
		childCfg.DefaultOutputPricePerMillion = r.config.DefaultOutputPricePerMillion
	}
	if childCfg.DefaultContextWindow == 0 {
		childCfg.DefaultContextWindow = r.config.DefaultContextWindow
	}

	child, err := NewRoot(childCfg)
	if err != nil {
		return nil, err
	}

	for _, provider := range r.catalog.Providers() {
		child.catalog.BindProvider(provider)
	}
	for _, m := range r.catalog.List() {
		if err := child.catalog.Register(m); err != nil {
			return nil, err
		}
	}
	for _, h := range r.catalog.Handlers() {
		child.catalog.RegisterHandler(h)
	}

	child.assembler.DefaultContext = mergeContextValues(r.assembler.DefaultContext, child.assembler.DefaultContext)
	child.assembler.DefaultMetadata = mergeMetadata(r.assembler.DefaultMetadata, child.assembler.DefaultMetadata)
	child.hooks = r.hooks.Merge(child.hooks)
	return child, nil
}

// Execute implements schemas.Executor for composed operations invoked via
// a GatewayContext (e.g. a tool implementation running its own chat call).
func (r *Root) Execute(ctx *schemas.GatewayContext, operation schemas.Operation, req interface{}) (interface{}, error) {
	switch operation {
	case schemas.OperationChat, schemas.OperationChatStream:
		cr := req.(*schemas.ChatRequest)
		return r.chat.Get(ctx, cr, schemas.Metadata{})
	case schemas.OperationEmbedding:
		er := req.(*schemas.EmbeddingRequest)
		return r.embedding.Get(ctx, er, schemas.Metadata{})
	case schemas.OperationImageGenerate:
		ir := req.(*schemas.ImageGenerateRequest)
		return r.imageGenerate.Get(ctx, ir, schemas.Metadata{})
	case schemas.OperationImageEdit:
		ir := req.(*schemas.ImageEditRequest)
		return r.imageEdit.Get(ctx, ir, schemas.Metadata{})
	case schemas.OperationImageAnalyze:
		cr := req.(*schemas.ChatRequest)
		return r.imageAnalyze.Get(ctx, cr, schemas.Metadata{})
	case schemas.OperationSpeech:
		sr := req.(*schemas.SpeechRequest)
		return r.speech.Get(ctx, sr, schemas.Metadata{})
	case schemas.OperationTranscription:
		tr := req.(*schemas.TranscriptionRequest)
		return r.transcribe.Get(ctx, tr, schemas.Metadata{})
	default:
		return nil, schemas.NewGatewayError(schemas.ErrorKindDispatchUnsupported, string(operation), "unknown composed operation", nil)
	}
}

// StreamOperation implements schemas.Streamer for composed operations.
func (r *Root) StreamOperation(ctx *schemas.GatewayContext, operation schemas.Operation, req interface{}) (<-chan interface{}, error) {
	switch operation {
	case schemas.OperationChat, schemas.OperationChatStream:
		ch, err := r.chat.Stream(ctx, req.(*schemas.ChatRequest), schemas.Metadata{})
		return widen(ch), err
	case schemas.OperationImageGenerate:
		ch, err := r.imageGenerate.Stream(ctx, req.(*schemas.ImageGenerateRequest), schemas.Metadata{})
		return widen(ch), err
	case schemas.OperationImageEdit:
		ch, err := r.imageEdit.Stream(ctx, req.(*schemas.ImageEditRequest), schemas.Metadata{})
		return widen(ch), err
	case schemas.OperationImageAnalyze:
		ch, err := r.imageAnalyze.Stream(ctx, req.(*schemas.ChatRequest), schemas.Metadata{})
		return widen(ch), err
	case schemas.OperationTranscription:
		ch, err := r.transcribe.Stream(ctx, req.(*schemas.TranscriptionRequest), schemas.Metadata{})
		return widen(ch), err
	default:
		return nil, schemas.NewGatewayError(schemas.ErrorKindDispatchUnsupported, string(operation), "operation does not support streaming", nil)
	}
}

func widen[C any](in <-chan *C) <-chan interface{} {
	if in == nil {
		return nil
	}
	out := make(chan interface{})
	go func() {
		defer close(out)
		for v := range in {
			out <- v
		}
	}()
	return out
}

// EstimateUsage implements schemas.UsageEstimator for composed operations.
func (r *Root) EstimateUsage(req interface{}) (schemas.Usage, error) {
	return r.tokens.Estimate(req)
}

// Chat runs the chat operation family (non-streaming).
func (r *Root) Chat(ctx context.Context, req *schemas.ChatRequest, metadata schemas.Metadata) (*schemas.ChatResponse, error) {
	return r.chat.Get(ctx, req, metadata)
}

// ChatStream runs the chat operation family (streaming).
func (r *Root) ChatStream(ctx context.Context, req *schemas.ChatRequest, metadata schemas.Metadata) (<-chan *schemas.ChatChunk, error) {
	return r.chat.Stream(ctx, req, metadata)
}

// Embed runs the embedding operation family (embedding has no streaming
// variant, per §4.8a).
func (r *Root) Embed(ctx context.Context, req *schemas.EmbeddingRequest, metadata schemas.Metadata) (*schemas.EmbeddingResponse, error) {
	return r.embedding.Get(ctx, req, metadata)
}

// ImageGenerate runs the image generation operation family (non-streaming).
func (r *Root) ImageGenerate(ctx context.Context, req *schemas.ImageGenerateRequest, metadata schemas.Metadata) (*schemas.ImageResponse, error) {
	return r.imageGenerate.Get(ctx, req, metadata)
}

// ImageGenerateStream runs the image generation operation family (streaming).
func (r *Root) ImageGenerateStream(ctx context.Context, req *schemas.ImageGenerateRequest, metadata schemas.Metadata) (<-chan *schemas.ImageChunk, error) {
	return r.imageGenerate.Stream(ctx, req, metadata)
}

// ImageEdit runs the image editing operation family (non-streaming).
func (r *Root) ImageEdit(ctx context.Context, req *schemas.ImageEditRequest, metadata schemas.Metadata) (*schemas.ImageResponse, error) {
	return r.imageEdit.Get(ctx, req, metadata)
}

// ImageEditStream runs the image editing operation family (streaming).
func (r *Root) ImageEditStream(ctx context.Context, req *schemas.ImageEditRequest, metadata schemas.Metadata) (<-chan *schemas.ImageChunk, error) {
	return r.imageEdit.Stream(ctx, req, metadata)
}

// ImageAnalyze runs the vision-analysis operation family (non-streaming);
// it reuses the chat request/response shapes (§4.8 step 2).
func (r *Root) ImageAnalyze(ctx context.Context, req *schemas.ChatRequest, metadata schemas.Metadata) (*schemas.ChatResponse, error) {
	return r.imageAnalyze.Get(ctx, req, metadata)
}

// ImageAnalyzeStream runs the vision-analysis operation family (streaming).
func (r *Root) ImageAnalyzeStream(ctx context.Context, req *schemas.ChatRequest, metadata schemas.Metadata) (<-chan *schemas.ChatChunk, error) {
	return r.imageAnalyze.Stream(ctx, req, metadata)
}

// Speech runs the speech synthesis operation family (non-streaming only,
// no SpeechStreamer contract is defined per §6).
func (r *Root) Speech(ctx context.Context, req *schemas.SpeechRequest, metadata schemas.Metadata) (*schemas.SpeechResponse, error) {
	return r.speech.Get(ctx, req, metadata)
}

// Transcribe runs the transcription operation family (non-streaming).
func (r *Root) Transcribe(ctx context.Context, req *schemas.TranscriptionRequest, metadata schemas.Metadata) (*schemas.TranscriptionResponse, error) {
	return r.transcribe.Get(ctx, req, metadata)
}

// TranscribeStream runs the transcription operation family (streaming).
func (r *Root) TranscribeStream(ctx context.Context, req *schemas.TranscriptionRequest, metadata schemas.Metadata) (<-chan *schemas.TranscriptionChunk, error) {
	return r.transcribe.Stream(ctx, req, metadata)
}
