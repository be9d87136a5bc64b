package schemas

// Operation names one operation family the pipeline can dispatch.
type Operation string

const (
	OperationChat          Operation = "chat"
	OperationChatStream    Operation = "chat-stream"
	OperationEmbedding     Operation = "embedding"
	OperationImageGenerate Operation = "image-generate"
	OperationImageEdit     Operation = "image-edit"
	OperationImageAnalyze  Operation = "image-analyze"
	OperationSpeech        Operation = "speech"
	OperationTranscription Operation = "transcription"
)

// Role is a chat message's author role.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ContentPartType classifies one part of a multi-part message.
type ContentPartType string

const (
	ContentPartText  ContentPartType = "text"
	ContentPartImage ContentPartType = "image"
	ContentPartAudio ContentPartType = "audio"
	ContentPartFile  ContentPartType = "file"
)

// ContentPart is one chunk of a (possibly multi-modal) message body. Exactly
// one of Text/DataURI/URI/Bytes is expected to be populated, matching Type.
type ContentPart struct {
	Type ContentPartType `json:"type"`

	Text string `json:"text,omitempty"`

	// DataURI holds a "data:<mime>;base64,<payload>" inline resource.
	DataURI string `json:"dataUri,omitempty"`

	// URI holds a non-data (http/https) reference to an external resource.
	URI string `json:"uri,omitempty"`

	// Bytes holds a raw binary blob supplied directly by the caller.
	Bytes []byte `json:"bytes,omitempty"`

	MimeType string `json:"mimeType,omitempty"`
}

// ToolCallFunction is the function-call payload of a ToolCall.
type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolCall is one invocation an assistant message requested.
type ToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function ToolCallFunction `json:"function"`
}

// ToolParameterSchema is a JSON Schema object describing a tool's
// parameters, validated via jsonschema on each chat request before model
// selection.
type ToolParameterSchema map[string]interface{}

// ToolDefinition describes one callable tool offered to the model.
type ToolDefinition struct {
	Type     string `json:"type"`
	Function struct {
		Name        string              `json:"name"`
		Description string              `json:"description,omitempty"`
		Parameters  ToolParameterSchema `json:"parameters,omitempty"`
	} `json:"function"`
}

// ResponseFormatType selects how the model must shape its output.
type ResponseFormatType string

const (
	ResponseFormatText       ResponseFormatType = "text"
	ResponseFormatJSON       ResponseFormatType = "json"
	ResponseFormatJSONSchema ResponseFormatType = "json_schema"
)

// ResponseFormat requests structured output from the model. A Type of
// ResponseFormatJSONSchema with a non-nil Schema derives the `structured`
// capability tag; a bare ResponseFormatJSON derives `json` (§4.8 step 2).
type ResponseFormat struct {
	Type   ResponseFormatType  `json:"type"`
	Schema ToolParameterSchema `json:"schema,omitempty"`
}

// Message is one turn of a chat-shaped conversation.
type Message struct {
	Role       Role          `json:"role"`
	Content    string        `json:"content,omitempty"`
	Parts      []ContentPart `json:"parts,omitempty"`
	Name       string        `json:"name,omitempty"`
	ToolCallID string        `json:"toolCallId,omitempty"`
	ToolCalls  []ToolCall    `json:"toolCalls,omitempty"`
	Refusal    string        `json:"refusal,omitempty"`

	// Tokens, if set, overrides per-message token estimation (§4.5).
	Tokens *int `json:"tokens,omitempty"`
}

// HasImagePart reports whether the message carries an image content part.
func (m Message) HasImagePart() bool { return m.hasPartType(ContentPartImage) }

// HasAudioPart reports whether the message carries an audio content part.
func (m Message) HasAudioPart() bool { return m.hasPartType(ContentPartAudio) }

func (m Message) hasPartType(t ContentPartType) bool {
	for _, p := range m.Parts {
		if p.Type == t {
			return true
		}
	}
	return false
}

// requestCommon is embedded by every operation-family request so the
// pipeline can read the explicit model id and build the metadata/selection
// predicate generically.
type requestCommon struct {
	Model string `json:"model,omitempty"`
}

// ExplicitModel returns the caller-supplied model identifier, if any.
func (r requestCommon) ExplicitModel() string { return r.Model }

// responseCommon is embedded by every operation-family response.
type responseCommon struct {
	Model string `json:"model,omitempty"`
	Usage *Usage `json:"usage,omitempty"`
}

// chunkCommon is embedded by every operation-family streaming chunk.
type chunkCommon struct {
	Model string `json:"model,omitempty"`
	Usage *Usage `json:"usage,omitempty"`
	Index int    `json:"index"`
}

// ChatRequest is the request shape for the chat operation family (also used,
// unmodified, for image analysis: analyze is a chat request whose messages
// happen to carry image parts).
type ChatRequest struct {
	requestCommon

	Messages []Message `json:"messages"`

	MaxTokens         *int            `json:"maxTokens,omitempty"`
	Temperature       *float64        `json:"temperature,omitempty"`
	TopP              *float64        `json:"topP,omitempty"`
	TopK              *int            `json:"topK,omitempty"`
	StopSequences     []string        `json:"stopSequences,omitempty"`
	PresencePenalty   *float64        `json:"presencePenalty,omitempty"`
	FrequencyPenalty  *float64        `json:"frequencyPenalty,omitempty"`
	Tools             []ToolDefinition `json:"tools,omitempty"`
	ToolChoice        interface{}     `json:"toolChoice,omitempty"`
	ParallelToolCalls *bool           `json:"parallelToolCalls,omitempty"`
	ResponseFormat    *ResponseFormat `json:"responseFormat,omitempty"`

	// Reason requests explicit reasoning output; its mere presence derives
	// the `reasoning` capability tag (§4.8 step 2).
	Reason          *string `json:"reason,omitempty"`
	ReasoningEffort *string `json:"reasoningEffort,omitempty"`

	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// HasImageParts reports whether any message carries an image part.
func (r *ChatRequest) HasImageParts() bool {
	for _, m := range r.Messages {
		if m.HasImagePart() {
			return true
		}
	}
	return false
}

// HasAudioParts reports whether any message carries an audio part.
func (r *ChatRequest) HasAudioParts() bool {
	for _, m := range r.Messages {
		if m.HasAudioPart() {
			return true
		}
	}
	return false
}

// ChatResponse is the non-streaming response for the chat operation family.
type ChatResponse struct {
	responseCommon

	ID           string  `json:"id,omitempty"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finishReason,omitempty"`
	Raw          interface{} `json:"-"`
}

// ChatChunk is one streamed fragment of a chat response.
type ChatChunk struct {
	chunkCommon

	ID           string  `json:"id,omitempty"`
	Delta        Message `json:"delta"`
	FinishReason *string `json:"finishReason,omitempty"`
}

// EmbeddingRequest is the request shape for the embedding operation family.
type EmbeddingRequest struct {
	requestCommon

	Input    []string               `json:"input"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// EmbeddingResponse is the (always non-streaming; embedding has no chunk
// conversion, per §4.8a) response for the embedding operation family.
type EmbeddingResponse struct {
	responseCommon

	Embeddings [][]float64 `json:"embeddings"`
}

// ImageSize is a width/height pair used by both pricing and requests.
type ImageSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ImageGenerateRequest is the request shape for image generation.
type ImageGenerateRequest struct {
	requestCommon

	Prompt  string    `json:"prompt"`
	N       int       `json:"n,omitempty"`
	Size    ImageSize `json:"size,omitempty"`
	Quality string    `json:"quality,omitempty"`
}

// ImageEditRequest is the request shape for image editing.
type ImageEditRequest struct {
	requestCommon

	Prompt  string    `json:"prompt"`
	Image   []byte    `json:"image"`
	Mask    []byte    `json:"mask,omitempty"`
	N       int       `json:"n,omitempty"`
	Size    ImageSize `json:"size,omitempty"`
	Quality string    `json:"quality,omitempty"`
}

// GeneratedImage is one image produced by a generate/edit call.
type GeneratedImage struct {
	URL     string    `json:"url,omitempty"`
	B64JSON string    `json:"b64Json,omitempty"`
	Quality string    `json:"quality,omitempty"`
	Size    ImageSize `json:"size,omitempty"`
}

// ImageResponse is the non-streaming response for image generation/editing.
type ImageResponse struct {
	responseCommon

	Images []GeneratedImage `json:"images"`
}

// ImageChunk is one streamed image; image streaming emits one chunk per
// generated image rather than textual fragments (§4.8a).
type ImageChunk struct {
	chunkCommon

	Image *GeneratedImage `json:"image,omitempty"`
}

// SpeechRequest is the request shape for speech synthesis.
type SpeechRequest struct {
	requestCommon

	Input  string `json:"input"`
	Voice  string `json:"voice,omitempty"`
	Format string `json:"format,omitempty"`
}

// SpeechResponse is the (always non-streaming) response for speech
// synthesis.
type SpeechResponse struct {
	responseCommon

	Audio  []byte `json:"audio"`
	Format string `json:"format,omitempty"`
}

// TranscriptionRequest is the request shape for audio transcription.
type TranscriptionRequest struct {
	requestCommon

	Audio    []byte  `json:"audio"`
	Format   string  `json:"format,omitempty"`
	Language *string `json:"language,omitempty"`
}

// TranscriptionResponse is the non-streaming response for transcription.
type TranscriptionResponse struct {
	responseCommon

	Text string `json:"text"`
}

// TranscriptionChunk is one streamed fragment of a transcription.
type TranscriptionChunk struct {
	chunkCommon

	Delta string `json:"delta"`
}
