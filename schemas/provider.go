package schemas

import "context"

// Provider is the contract every backing AI provider must satisfy. The
// dispatch methods (chat, image, speech, ...) are deliberately not part of
// this interface: a provider implements any subset of them, and the
// Capability Detector (C2) discovers which ones are present via the
// optional narrow interfaces below (ChatExecutor, ImageGenerator, ...),
// the same pattern stdlib uses for io.ReaderFrom/http.Hijacker.
type Provider interface {
	// Name is the provider's registry identifier.
	Name() string

	// Config returns the provider's opaque configuration handle, passed
	// back into dispatch methods that accept one.
	Config() interface{}

	// Priority is the tie-break rank used when a bare model id is
	// ambiguous across providers; lower wins. Default is 10.
	Priority() int

	// DefaultMetadata is merged into every request's metadata at the
	// lowest precedence (§4.7).
	DefaultMetadata() map[string]interface{}

	// CheckHealth reports whether the provider is currently reachable.
	CheckHealth(ctx context.Context) error
}

// ModelLister is implemented by providers that can enumerate their own
// catalog; the Refresh Coordinator (C4) calls it in ascending priority
// order.
type ModelLister interface {
	ListModels(ctx context.Context) ([]ModelInfo, error)
}

// ChatExecutor is implemented by providers offering a non-streaming chat
// dispatch method. Its presence derives the `chat` capability tag.
type ChatExecutor interface {
	ChatExecute(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
}

// ChatStreamer is implemented by providers offering a streaming chat
// dispatch method. Its presence derives the `streaming` capability tag.
type ChatStreamer interface {
	ChatStream(ctx context.Context, req *ChatRequest) (<-chan *ChatChunk, error)
}

// EmbeddingExecutor is implemented by providers offering embeddings. Its
// presence derives the `embedding` capability tag.
type EmbeddingExecutor interface {
	EmbeddingExecute(ctx context.Context, req *EmbeddingRequest) (*EmbeddingResponse, error)
}

// ImageGenerator is implemented by providers offering image generation.
// Its presence, along with ImageEditor, derives the `image` capability tag.
type ImageGenerator interface {
	ImageGenerate(ctx context.Context, req *ImageGenerateRequest) (*ImageResponse, error)
}

// ImageGenerateStreamer is the streaming counterpart of ImageGenerator.
type ImageGenerateStreamer interface {
	ImageGenerateStream(ctx context.Context, req *ImageGenerateRequest) (<-chan *ImageChunk, error)
}

// ImageEditor is implemented by providers offering image editing.
type ImageEditor interface {
	ImageEdit(ctx context.Context, req *ImageEditRequest) (*ImageResponse, error)
}

// ImageEditStreamer is the streaming counterpart of ImageEditor.
type ImageEditStreamer interface {
	ImageEditStream(ctx context.Context, req *ImageEditRequest) (<-chan *ImageChunk, error)
}

// ImageAnalyzer is implemented by providers offering vision analysis (a
// chat dispatch over image-bearing messages). Its presence derives the
// `chat` and `vision` capability tags together.
type ImageAnalyzer interface {
	ImageAnalyze(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
}

// ImageAnalyzeStreamer is the streaming counterpart of ImageAnalyzer.
type ImageAnalyzeStreamer interface {
	ImageAnalyzeStream(ctx context.Context, req *ChatRequest) (<-chan *ChatChunk, error)
}

// SpeechExecutor is implemented by providers offering speech synthesis.
// Its presence derives the `audio` capability tag.
type SpeechExecutor interface {
	Speech(ctx context.Context, req *SpeechRequest) (*SpeechResponse, error)
}

// TranscribeExecutor is implemented by providers offering transcription.
// Its presence derives the `hearing` capability tag.
type TranscribeExecutor interface {
	Transcribe(ctx context.Context, req *TranscriptionRequest) (*TranscriptionResponse, error)
}

// TranscribeStreamer is the streaming counterpart of TranscribeExecutor.
type TranscribeStreamer interface {
	TranscribeStream(ctx context.Context, req *TranscriptionRequest) (<-chan *TranscriptionChunk, error)
}

// OperationHandler is a per-(provider,model) override for one operation
// family: a small dispatch pair passed by reference rather than a bound
// method, so a ModelHandler can supply just the operations it needs to
// intercept.
type OperationHandler[Req any, Resp any, Chunk any] struct {
	Get    func(ctx context.Context, req *Req) (*Resp, error)
	Stream func(ctx context.Context, req *Req) (<-chan *Chunk, error)
}

// ModelHandler is a per-model plug keyed on (provider, modelId), with
// fallback to a bare modelId, that can intercept any operation family and
// supply a custom executor/streamer ahead of the provider's own dispatch.
type ModelHandler struct {
	Provider string
	ModelID  string

	Chat          *OperationHandler[ChatRequest, ChatResponse, ChatChunk]
	Embedding     *OperationHandler[EmbeddingRequest, EmbeddingResponse, EmbeddingResponse]
	ImageGenerate *OperationHandler[ImageGenerateRequest, ImageResponse, ImageChunk]
	ImageEdit     *OperationHandler[ImageEditRequest, ImageResponse, ImageChunk]
	ImageAnalyze  *OperationHandler[ChatRequest, ChatResponse, ChatChunk]
	Speech        *OperationHandler[SpeechRequest, SpeechResponse, SpeechResponse]
	Transcribe    *OperationHandler[TranscriptionRequest, TranscriptionResponse, TranscriptionChunk]
}

// Key returns the bare-modelId and provider/modelId lookup keys this
// handler is registered under, mirroring ModelInfo.Key's two-key scheme.
func (h *ModelHandler) Key() (bareID, providerID string) {
	return h.ModelID, h.Provider + "/" + h.ModelID
}

// ModelSource is an external enumerator used to enrich provider-advertised
// models with pricing/metrics the provider itself does not expose.
type ModelSource interface {
	FetchModels(ctx context.Context) ([]ModelInfo, error)
}
