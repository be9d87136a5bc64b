package gateway

import (
	"context"
	"strings"

	"github.com/relaymesh/gateway/schemas"
)

// wirePipelines builds one generic pipeline instance per operation family,
// each closed over this Root and configured with that family's static
// requirements, payload-derived capability/parameter detection, and
// dispatch/conversion adapters (§4.8, §4.8a).
func (r *Root) wirePipelines() {
	r.chat = newPipeline(r, chatSpec(schemas.OperationChat))
	r.embedding = newPipeline(r, embeddingSpec())
	r.imageGenerate = newPipeline(r, imageGenerateSpec())
	r.imageEdit = newPipeline(r, imageEditSpec())
	r.imageAnalyze = newPipeline(r, imageAnalyzeSpec())
	r.speech = newPipeline(r, speechSpec())
	r.transcribe = newPipeline(r, transcribeSpec())
}

func derivedChatCapabilities(req *schemas.ChatRequest) schemas.StringSet {
	caps := schemas.StringSet{}
	if req.HasImageParts() {
		caps[string(schemas.CapabilityVision)] = struct{}{}
	}
	if req.HasAudioParts() {
		caps[string(schemas.CapabilityHearing)] = struct{}{}
	}
	if req.Reason != nil {
		caps[string(schemas.CapabilityReasoning)] = struct{}{}
	}
	if req.ResponseFormat != nil {
		switch req.ResponseFormat.Type {
		case schemas.ResponseFormatJSON:
			caps[string(schemas.CapabilityJSON)] = struct{}{}
		case schemas.ResponseFormatJSONSchema:
			if req.ResponseFormat.Schema != nil {
				caps[string(schemas.CapabilityStructured)] = struct{}{}
			}
		}
	}
	if len(req.Tools) > 0 {
		caps[string(schemas.CapabilityTools)] = struct{}{}
	}
	return caps
}

func derivedChatParameters(req *schemas.ChatRequest) schemas.StringSet {
	params := schemas.StringSet{}
	add := func(p schemas.Parameter) { params[string(p)] = struct{}{} }
	if req.MaxTokens != nil {
		add(schemas.ParameterMaxTokens)
	}
	if req.Temperature != nil {
		add(schemas.ParameterTemperature)
	}
	if req.TopP != nil {
		add(schemas.ParameterTopP)
	}
	if req.TopK != nil {
		add(schemas.ParameterTopK)
	}
	if len(req.StopSequences) > 0 {
		add(schemas.ParameterStopSequences)
	}
	if req.PresencePenalty != nil {
		add(schemas.ParameterPresencePenalty)
	}
	if req.FrequencyPenalty != nil {
		add(schemas.ParameterFrequencyPenalty)
	}
	if len(req.Tools) > 0 {
		add(schemas.ParameterTools)
	}
	if req.ToolChoice != nil {
		add(schemas.ParameterToolChoice)
	}
	if req.ParallelToolCalls != nil {
		add(schemas.ParameterParallelToolCalls)
	}
	if req.ResponseFormat != nil {
		add(schemas.ParameterResponseFormat)
	}
	if req.ReasoningEffort != nil {
		add(schemas.ParameterReasoningEffort)
	}
	return params
}

// chatSpec builds the chat operation family's spec; imageAnalyzeSpec reuses
// it with a different static capability set and dispatch methods, since
// both operations share the ChatRequest/ChatResponse/ChatChunk shapes.
func chatSpec(op schemas.Operation) OperationSpec[schemas.ChatRequest, schemas.ChatResponse, schemas.ChatChunk] {
	return OperationSpec[schemas.ChatRequest, schemas.ChatResponse, schemas.ChatChunk]{
		Operation:           op,
		StaticCapabilities:  schemas.NewStringSet(string(schemas.CapabilityChat)),
		DerivedCapabilities: derivedChatCapabilities,
		DerivedParameters:   derivedChatParameters,
		HandlerOps: func(h *schemas.ModelHandler) *schemas.OperationHandler[schemas.ChatRequest, schemas.ChatResponse, schemas.ChatChunk] {
			return h.Chat
		},
		ProviderGet: func(p schemas.Provider) func(context.Context, *schemas.ChatRequest) (*schemas.ChatResponse, error) {
			if exec, ok := p.(schemas.ChatExecutor); ok {
				return exec.ChatExecute
			}
			return nil
		},
		ProviderStream: func(p schemas.Provider) func(context.Context, *schemas.ChatRequest) (<-chan *schemas.ChatChunk, error) {
			if exec, ok := p.(schemas.ChatStreamer); ok {
				return exec.ChatStream
			}
			return nil
		},
		ChunksToResponse: aggregateChatChunks,
		ResponseToChunks: expandChatResponse,
		ValidateRequest: func(req *schemas.ChatRequest) error {
			return schemas.ValidateToolDefinitions(req.Tools)
		},
		ExtractUsage:     func(r *schemas.ChatResponse) schemas.Usage { return derefUsage(r.Usage) },
		ChunkUsage:       func(c *schemas.ChatChunk) schemas.Usage { return derefUsage(c.Usage) },
		SetModel:         func(r *schemas.ChatResponse, model string) { r.Model = model },
		SetChunkModel:    func(c *schemas.ChatChunk, model string) { c.Model = model },
	}
}

func imageAnalyzeSpec() OperationSpec[schemas.ChatRequest, schemas.ChatResponse, schemas.ChatChunk] {
	spec := chatSpec(schemas.OperationImageAnalyze)
	spec.StaticCapabilities = schemas.NewStringSet(string(schemas.CapabilityChat), string(schemas.CapabilityVision))
	spec.HandlerOps = func(h *schemas.ModelHandler) *schemas.OperationHandler[schemas.ChatRequest, schemas.ChatResponse, schemas.ChatChunk] {
		return h.ImageAnalyze
	}
	spec.ProviderGet = func(p schemas.Provider) func(context.Context, *schemas.ChatRequest) (*schemas.ChatResponse, error) {
		if exec, ok := p.(schemas.ImageAnalyzer); ok {
			return exec.ImageAnalyze
		}
		return nil
	}
	spec.ProviderStream = func(p schemas.Provider) func(context.Context, *schemas.ChatRequest) (<-chan *schemas.ChatChunk, error) {
		if exec, ok := p.(schemas.ImageAnalyzeStreamer); ok {
			return exec.ImageAnalyzeStream
		}
		return nil
	}
	return spec
}

func aggregateChatChunks(model string, chunks []*schemas.ChatChunk) *schemas.ChatResponse {
	resp := &schemas.ChatResponse{}
	resp.Model = model
	var content strings.Builder
	var acc schemas.Usage
	for _, c := range chunks {
		content.WriteString(c.Delta.Content)
		if c.Delta.ToolCalls != nil {
			resp.Message.ToolCalls = c.Delta.ToolCalls
		}
		if c.FinishReason != nil {
			resp.FinishReason = *c.FinishReason
		}
		if c.Usage != nil {
			acc = accumulateUsage(acc, *c.Usage)
		}
		if c.ID != "" {
			resp.ID = c.ID
		}
	}
	resp.Message.Role = schemas.RoleAssistant
	resp.Message.Content = content.String()
	if !usageIsEmpty(acc) {
		resp.Usage = &acc
	}
	return resp
}

func expandChatResponse(resp *schemas.ChatResponse) []*schemas.ChatChunk {
	finish := resp.FinishReason
	chunk := &schemas.ChatChunk{
		ID:           resp.ID,
		Delta:        resp.Message,
		FinishReason: &finish,
	}
	chunk.Model = resp.Model
	chunk.Usage = resp.Usage
	return []*schemas.ChatChunk{chunk}
}

func derefUsage(u *schemas.Usage) schemas.Usage {
	if u == nil {
		return schemas.Usage{}
	}
	return *u
}

func embeddingSpec() OperationSpec[schemas.EmbeddingRequest, schemas.EmbeddingResponse, schemas.EmbeddingResponse] {
	return OperationSpec[schemas.EmbeddingRequest, schemas.EmbeddingResponse, schemas.EmbeddingResponse]{
		Operation:          schemas.OperationEmbedding,
		StaticCapabilities: schemas.NewStringSet(string(schemas.CapabilityEmbedding)),
		HandlerOps: func(h *schemas.ModelHandler) *schemas.OperationHandler[schemas.EmbeddingRequest, schemas.EmbeddingResponse, schemas.EmbeddingResponse] {
			return h.Embedding
		},
		ProviderGet: func(p schemas.Provider) func(context.Context, *schemas.EmbeddingRequest) (*schemas.EmbeddingResponse, error) {
			if exec, ok := p.(schemas.EmbeddingExecutor); ok {
				return exec.EmbeddingExecute
			}
			return nil
		},
		// No ProviderStream/ChunksToResponse/ResponseToChunks: embedding
		// has no streaming variant and no chunk conversion (§4.8a).
		ExtractUsage: func(r *schemas.EmbeddingResponse) schemas.Usage { return derefUsage(r.Usage) },
		SetModel:     func(r *schemas.EmbeddingResponse, model string) { r.Model = model },
	}
}

func imageGenerateSpec() OperationSpec[schemas.ImageGenerateRequest, schemas.ImageResponse, schemas.ImageChunk] {
	return OperationSpec[schemas.ImageGenerateRequest, schemas.ImageResponse, schemas.ImageChunk]{
		Operation:          schemas.OperationImageGenerate,
		StaticCapabilities: schemas.NewStringSet(string(schemas.CapabilityImage)),
		HandlerOps: func(h *schemas.ModelHandler) *schemas.OperationHandler[schemas.ImageGenerateRequest, schemas.ImageResponse, schemas.ImageChunk] {
			return h.ImageGenerate
		},
		ProviderGet: func(p schemas.Provider) func(context.Context, *schemas.ImageGenerateRequest) (*schemas.ImageResponse, error) {
			if exec, ok := p.(schemas.ImageGenerator); ok {
				return exec.ImageGenerate
			}
			return nil
		},
		ProviderStream: func(p schemas.Provider) func(context.Context, *schemas.ImageGenerateRequest) (<-chan *schemas.ImageChunk, error) {
			if exec, ok := p.(schemas.ImageGenerateStreamer); ok {
				return exec.ImageGenerateStream
			}
			return nil
		},
		ChunksToResponse: aggregateImageChunks,
		ResponseToChunks: expandImageResponse,
		ExtractUsage:     func(r *schemas.ImageResponse) schemas.Usage { return derefUsage(r.Usage) },
		ChunkUsage:       func(c *schemas.ImageChunk) schemas.Usage { return derefUsage(c.Usage) },
		SetModel:         func(r *schemas.ImageResponse, model string) { r.Model = model },
		SetChunkModel:    func(c *schemas.ImageChunk, model string) { c.Model = model },
	}
}

func imageEditSpec() OperationSpec[schemas.ImageEditRequest, schemas.ImageResponse, schemas.ImageChunk] {
	return OperationSpec[schemas.ImageEditRequest, schemas.ImageResponse, schemas.ImageChunk]{
		Operation:          schemas.OperationImageEdit,
		StaticCapabilities: schemas.NewStringSet(string(schemas.CapabilityImage)),
		HandlerOps: func(h *schemas.ModelHandler) *schemas.OperationHandler[schemas.ImageEditRequest, schemas.ImageResponse, schemas.ImageChunk] {
			return h.ImageEdit
		},
		ProviderGet: func(p schemas.Provider) func(context.Context, *schemas.ImageEditRequest) (*schemas.ImageResponse, error) {
			if exec, ok := p.(schemas.ImageEditor); ok {
				return exec.ImageEdit
			}
			return nil
		},
		ProviderStream: func(p schemas.Provider) func(context.Context, *schemas.ImageEditRequest) (<-chan *schemas.ImageChunk, error) {
			if exec, ok := p.(schemas.ImageEditStreamer); ok {
				return exec.ImageEditStream
			}
			return nil
		},
		ChunksToResponse: aggregateImageChunks,
		ResponseToChunks: expandImageResponse,
		ExtractUsage:     func(r *schemas.ImageResponse) schemas.Usage { return derefUsage(r.Usage) },
		ChunkUsage:       func(c *schemas.ImageChunk) schemas.Usage { return derefUsage(c.Usage) },
		SetModel:         func(r *schemas.ImageResponse, model string) { r.Model = model },
		SetChunkModel:    func(c *schemas.ImageChunk, model string) { c.Model = model },
	}
}

func aggregateImageChunks(model string, chunks []*schemas.ImageChunk) *schemas.ImageResponse {
	resp := &schemas.ImageResponse{}
	resp.Model = model
	var acc schemas.Usage
	for _, c := range chunks {
		if c.Image != nil {
			resp.Images = append(resp.Images, *c.Image)
		}
		if c.Usage != nil {
			acc = accumulateUsage(acc, *c.Usage)
		}
	}
	if !usageIsEmpty(acc) {
		resp.Usage = &acc
	}
	return resp
}

// expandImageResponse emits one chunk per generated image (§4.8a).
func expandImageResponse(resp *schemas.ImageResponse) []*schemas.ImageChunk {
	chunks := make([]*schemas.ImageChunk, 0, len(resp.Images))
	for i := range resp.Images {
		img := resp.Images[i]
		chunk := &schemas.ImageChunk{Image: &img}
		chunk.Model = resp.Model
		chunk.Index = i
		if i == len(resp.Images)-1 {
			chunk.Usage = resp.Usage
		}
		chunks = append(chunks, chunk)
	}
	return chunks
}

func speechSpec() OperationSpec[schemas.SpeechRequest, schemas.SpeechResponse, schemas.SpeechResponse] {
	return OperationSpec[schemas.SpeechRequest, schemas.SpeechResponse, schemas.SpeechResponse]{
		Operation:          schemas.OperationSpeech,
		StaticCapabilities: schemas.NewStringSet(string(schemas.CapabilityAudio)),
		HandlerOps: func(h *schemas.ModelHandler) *schemas.OperationHandler[schemas.SpeechRequest, schemas.SpeechResponse, schemas.SpeechResponse] {
			return h.Speech
		},
		ProviderGet: func(p schemas.Provider) func(context.Context, *schemas.SpeechRequest) (*schemas.SpeechResponse, error) {
			if exec, ok := p.(schemas.SpeechExecutor); ok {
				return exec.Speech
			}
			return nil
		},
		// No streamer contract for speech is defined (§6); Speech is
		// always dispatched non-streaming.
		ExtractUsage: func(r *schemas.SpeechResponse) schemas.Usage { return derefUsage(r.Usage) },
		SetModel:     func(r *schemas.SpeechResponse, model string) { r.Model = model },
	}
}

func transcribeSpec() OperationSpec[schemas.TranscriptionRequest, schemas.TranscriptionResponse, schemas.TranscriptionChunk] {
	return OperationSpec[schemas.TranscriptionRequest, schemas.TranscriptionResponse, schemas.TranscriptionChunk]{
		Operation:          schemas.OperationTranscription,
		StaticCapabilities: schemas.NewStringSet(string(schemas.CapabilityHearing)),
		HandlerOps: func(h *schemas.ModelHandler) *schemas.OperationHandler[schemas.TranscriptionRequest, schemas.TranscriptionResponse, schemas.TranscriptionChunk] {
			return h.Transcribe
		},
		ProviderGet: func(p schemas.Provider) func(context.Context, *schemas.TranscriptionRequest) (*schemas.TranscriptionResponse, error) {
			if exec, ok := p.(schemas.TranscribeExecutor); ok {
				return exec.Transcribe
			}
			return nil
		},
		ProviderStream: func(p schemas.Provider) func(context.Context, *schemas.TranscriptionRequest) (<-chan *schemas.TranscriptionChunk, error) {
			if exec, ok := p.(schemas.TranscribeStreamer); ok {
				return exec.TranscribeStream
			}
			return nil
		},
		ChunksToResponse: aggregateTranscriptionChunks,
		ResponseToChunks: expandTranscriptionResponse,
		ExtractUsage:     func(r *schemas.TranscriptionResponse) schemas.Usage { return derefUsage(r.Usage) },
		ChunkUsage:       func(c *schemas.TranscriptionChunk) schemas.Usage { return derefUsage(c.Usage) },
		SetModel:         func(r *schemas.TranscriptionResponse, model string) { r.Model = model },
		SetChunkModel:    func(c *schemas.TranscriptionChunk, model string) { c.Model = model },
	}
}

func aggregateTranscriptionChunks(model string, chunks []*schemas.TranscriptionChunk) *schemas.TranscriptionResponse {
	resp := &schemas.TranscriptionResponse{}
	resp.Model = model
	var text strings.Builder
	var acc schemas.Usage
	for _, c := range chunks {
		text.WriteString(c.Delta)
		if c.Usage != nil {
			acc = accumulateUsage(acc, *c.Usage)
		}
	}
	resp.Text = text.String()
	if !usageIsEmpty(acc) {
		resp.Usage = &acc
	}
	return resp
}

func expandTranscriptionResponse(resp *schemas.TranscriptionResponse) []*schemas.TranscriptionChunk {
	chunk := &schemas.TranscriptionChunk{Delta: resp.Text}
	chunk.Model = resp.Model
	chunk.Usage = resp.Usage
	return []*schemas.TranscriptionChunk{chunk}
}
