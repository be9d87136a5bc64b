package tokens

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relaymesh/gateway/schemas"
)

func TestEstimator_EstimateChatRequest_Monotone(t *testing.T) {
	e := NewEstimator(DefaultTuning())

	short := &schemas.ChatRequest{Messages: []schemas.Message{{Role: schemas.RoleUser, Content: "hi"}}}
	long := &schemas.ChatRequest{Messages: []schemas.Message{{Role: schemas.RoleUser, Content: "hi, this message has a lot more text in it than the short one"}}}

	shortUsage := e.EstimateChatRequest(short)
	longUsage := e.EstimateChatRequest(long)

	assert.GreaterOrEqual(t, longUsage.Text.Input, shortUsage.Text.Input)
}

func TestEstimator_EstimateMessage_PreCountedOverride(t *testing.T) {
	e := NewEstimator(DefaultTuning())
	tokens := 42
	text, image, audio := e.estimateMessage(schemas.Message{Role: schemas.RoleUser, Content: "ignored", Tokens: &tokens})
	assert.Equal(t, 42, text)
	assert.Equal(t, 0, image)
	assert.Equal(t, 0, audio)
}

func TestEstimator_EstimatePart_Classification(t *testing.T) {
	tuning := DefaultTuning()
	e := NewEstimator(tuning)

	tests := []struct {
		name      string
		part      schemas.ContentPart
		wantField string // "text", "image", "audio", "file"
		wantZero  bool
	}{
		{
			name:      "data uri image is sized by base64 divisor",
			part:      schemas.ContentPart{Type: schemas.ContentPartImage, DataURI: "data:image/png;base64,QUFBQUFBQUFBQUFBQUFBQUFBQUFBQUFBQUFBQUFBQUE="},
			wantField: "image",
		},
		{
			name:      "http uri image falls back to flat tokens",
			part:      schemas.ContentPart{Type: schemas.ContentPartImage, URI: "https://example.com/cat.png"},
			wantField: "image",
		},
		{
			name:      "raw bytes audio uses binary divisor",
			part:      schemas.ContentPart{Type: schemas.ContentPartAudio, Bytes: make([]byte, 300)},
			wantField: "audio",
		},
		{
			name:      "file tokens are folded into text",
			part:      schemas.ContentPart{Type: schemas.ContentPartFile, Bytes: make([]byte, 30)},
			wantField: "file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, image, audio, file := e.estimatePart(tt.part)
			switch tt.wantField {
			case "image":
				assert.Greater(t, image, 0)
				assert.Equal(t, 0, text+audio+file)
			case "audio":
				assert.Greater(t, audio, 0)
				assert.Equal(t, 0, text+image+file)
			case "file":
				assert.Greater(t, file, 0)
				assert.Equal(t, 0, text+image+audio)
			}
		})
	}
}

func TestEstimator_ImageCap(t *testing.T) {
	tuning := DefaultTuning()
	e := NewEstimator(tuning)

	huge := make([]byte, 10_000_000)
	_, tok, _, _ := e.estimatePart(schemas.ContentPart{Type: schemas.ContentPartImage, Bytes: huge})
	assert.Equal(t, tuning.Image.Cap, tok)
}

func TestEstimator_Estimate_UnsupportedType(t *testing.T) {
	e := NewEstimator(DefaultTuning())
	_, err := e.Estimate("not a request")
	assert.Error(t, err)
}

func TestEstimator_EstimateEmbeddingRequest(t *testing.T) {
	e := NewEstimator(DefaultTuning())
	usage := e.EstimateEmbeddingRequest(&schemas.EmbeddingRequest{Input: []string{"hello", "world"}})
	assert.Equal(t, 2, usage.Embeddings.Count)
	assert.Greater(t, usage.Embeddings.Tokens, 0)
}
