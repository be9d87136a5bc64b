package tokens

import (
	"strings"

	"github.com/relaymesh/gateway/schemas"
)

// Estimator converts operation inputs into Usage records under a Tuning
// table. The zero value is not usable; build one with NewEstimator.
type Estimator struct {
	tuning Tuning
}

// NewEstimator builds an Estimator with the given tuning table.
func NewEstimator(tuning Tuning) *Estimator {
	return &Estimator{tuning: tuning}
}

// EstimateChatRequest estimates the input side of a chat (or image-analyze)
// request: every message is summed per §4.5's per-message rule.
func (e *Estimator) EstimateChatRequest(req *schemas.ChatRequest) schemas.Usage {
	var textTokens, imageTokens, audioTokens int
	for _, m := range req.Messages {
		t, i, a := e.estimateMessage(m)
		textTokens += t
		imageTokens += i
		audioTokens += a
	}
	return usageFromCounts(textTokens, imageTokens, audioTokens)
}

// estimateMessage returns (text, image, audio) input token counts for one
// message, honoring a pre-counted override.
func (e *Estimator) estimateMessage(m schemas.Message) (text, image, audio int) {
	if m.Tokens != nil {
		return *m.Tokens, 0, 0
	}

	text += e.textTokens(string(m.Role))
	text += e.textTokens(m.Name)
	text += e.textTokens(m.Refusal)
	text += e.textTokens(m.ToolCallID)

	if len(m.ToolCalls) > 0 {
		if encoded, err := schemas.MarshalString(m.ToolCalls); err == nil {
			text += e.textTokens(encoded)
		}
	}

	if m.Content != "" {
		text += e.textTokens(m.Content)
	}

	for _, part := range m.Parts {
		pt, pi, pa, pf := e.estimatePart(part)
		text += pt + pf
		image += pi
		audio += pa
	}

	return text, image, audio
}

// estimatePart classifies one content part and returns its contribution to
// (text, image, audio, fileFoldedIntoText) token counts.
func (e *Estimator) estimatePart(p schemas.ContentPart) (text, image, audio, file int) {
	switch p.Type {
	case schemas.ContentPartImage:
		return 0, e.sizeTokens(p, e.tuning.Image), 0, 0
	case schemas.ContentPartAudio:
		return 0, 0, e.sizeTokens(p, e.tuning.Audio), 0
	case schemas.ContentPartFile:
		return 0, 0, 0, e.sizeTokens(p, e.tuning.File)
	case schemas.ContentPartText:
		return e.textTokens(p.Text), 0, 0, 0
	default:
		return e.tuning.Text.Fallback, 0, 0, 0
	}
}

// sizeTokens applies the data-URI/URI/bytes classification rule (§4.5)
// under the given modality's tuning.
func (e *Estimator) sizeTokens(p schemas.ContentPart, tuning ModalityTuning) int {
	switch {
	case p.DataURI != "":
		payload := p.DataURI
		if idx := strings.Index(payload, ","); idx >= 0 {
			payload = payload[idx+1:]
		}
		return applyCap(tokensForChars(len(payload), tuning.Base64), tuning.Cap)
	case len(p.Bytes) > 0:
		return applyCap(tokensForChars(len(p.Bytes), tuning.Primary), tuning.Cap)
	case p.URI != "":
		return tuning.Fallback
	default:
		return tuning.Fallback
	}
}

func (e *Estimator) textTokens(s string) int {
	if s == "" {
		return 0
	}
	return tokensForChars(len(s), e.tuning.Text.Primary)
}

func usageFromCounts(text, image, audio int) schemas.Usage {
	u := schemas.Usage{}
	if text > 0 {
		u.Text = &schemas.PriceEntry{Input: float64(text)}
	}
	if image > 0 {
		u.Image = []schemas.ImageOutputUsage{}
		// Image *input* tokens ride on the text usage bucket per the
		// ModelInfo/Usage split (§3: image usage in the Usage record is
		// output-oriented generation accounting); input image tokens are
		// folded into text.input so cost calculation's existing text
		// term picks them up without a dedicated image-input price field.
		if u.Text == nil {
			u.Text = &schemas.PriceEntry{}
		}
		u.Text.Input += float64(image)
	}
	if audio > 0 {
		u.Audio = &schemas.AudioUsage{Input: audio}
	}
	return u
}

// EstimateEmbeddingRequest estimates the input tokens of an embedding
// request: each input string under the text divisor.
func (e *Estimator) EstimateEmbeddingRequest(req *schemas.EmbeddingRequest) schemas.Usage {
	total := 0
	for _, s := range req.Input {
		total += e.textTokens(s)
	}
	return schemas.Usage{Embeddings: &schemas.EmbeddingsUsage{Count: len(req.Input), Tokens: total}}
}

// EstimateImageGenerateRequest estimates the prompt text tokens of an image
// generation request; the produced images themselves are accounted for from
// the realized response (§4.6), not estimated up front.
func (e *Estimator) EstimateImageGenerateRequest(req *schemas.ImageGenerateRequest) schemas.Usage {
	return schemas.Usage{Text: &schemas.PriceEntry{Input: float64(e.textTokens(req.Prompt))}}
}

// EstimateImageEditRequest estimates the prompt and source-image tokens of
// an image edit request.
func (e *Estimator) EstimateImageEditRequest(req *schemas.ImageEditRequest) schemas.Usage {
	textTok := e.textTokens(req.Prompt)
	imageTok := applyCap(tokensForChars(len(req.Image), e.tuning.Image.Primary), e.tuning.Image.Cap)
	return schemas.Usage{Text: &schemas.PriceEntry{Input: float64(textTok + imageTok)}}
}

// EstimateSpeechRequest estimates the input text tokens of a speech
// synthesis request.
func (e *Estimator) EstimateSpeechRequest(req *schemas.SpeechRequest) schemas.Usage {
	return schemas.Usage{Text: &schemas.PriceEntry{Input: float64(e.textTokens(req.Input))}}
}

// EstimateTranscriptionRequest estimates the audio-input tokens of a
// transcription request from its raw byte length.
func (e *Estimator) EstimateTranscriptionRequest(req *schemas.TranscriptionRequest) schemas.Usage {
	tok := applyCap(tokensForChars(len(req.Audio), e.tuning.Audio.Primary), e.tuning.Audio.Cap)
	return schemas.Usage{Audio: &schemas.AudioUsage{Input: tok}}
}

// Estimate dispatches on the concrete request type, returning an error for
// any type the estimator does not recognize.
func (e *Estimator) Estimate(req interface{}) (schemas.Usage, error) {
	switch r := req.(type) {
	case *schemas.ChatRequest:
		return e.EstimateChatRequest(r), nil
	case *schemas.EmbeddingRequest:
		return e.EstimateEmbeddingRequest(r), nil
	case *schemas.ImageGenerateRequest:
		return e.EstimateImageGenerateRequest(r), nil
	case *schemas.ImageEditRequest:
		return e.EstimateImageEditRequest(r), nil
	case *schemas.SpeechRequest:
		return e.EstimateSpeechRequest(r), nil
	case *schemas.TranscriptionRequest:
		return e.EstimateTranscriptionRequest(r), nil
	default:
		return schemas.Usage{}, schemas.NewGatewayError(schemas.ErrorKindValidationFailed, "", "unsupported request type for token estimation", nil)
	}
}
