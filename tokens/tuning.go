// Package tokens implements the Token Estimator (C5): converting an
// operation's input into a Usage record whose *.input counts approximate
// billable units, without ever calling out to a real tokenizer.
package tokens

// ModalityTuning holds the three divisors and optional cap that drive
// estimation for one modality (§4.5):
//   - Primary is the divisor applied to raw bytes (images, audio, files) or
//     to plain-text character counts (text).
//   - Base64 is the divisor applied to the character length of a base64 /
//     data-URI payload.
//   - Fallback is a flat token count used when the content can't be sized
//     at all (a bare non-data URI reference).
//   - Cap, if non-zero, is the maximum token count a single computed value
//     (from Primary or Base64) may report.
type ModalityTuning struct {
	Primary  float64 `yaml:"primary"`
	Base64   float64 `yaml:"base64"`
	Fallback int     `yaml:"fallback"`
	Cap      int     `yaml:"cap"`
}

// Tuning groups the per-modality divisor tables the estimator uses.
type Tuning struct {
	Text  ModalityTuning `yaml:"text"`
	Image ModalityTuning `yaml:"image"`
	File  ModalityTuning `yaml:"file"`
	Audio ModalityTuning `yaml:"audio"`
}

// DefaultTuning returns the spec-prescribed default divisor tables.
func DefaultTuning() Tuning {
	return Tuning{
		Text:  ModalityTuning{Primary: 4, Base64: 3, Fallback: 1000, Cap: 0},
		Image: ModalityTuning{Primary: 1125, Base64: 1500, Fallback: 1360, Cap: 1360},
		File:  ModalityTuning{Primary: 3, Base64: 4, Fallback: 1000, Cap: 0},
		Audio: ModalityTuning{Primary: 3, Base64: 4, Fallback: 200, Cap: 0},
	}
}

// tokensForChars converts a character/byte count into a token count under
// divisor, rounding up so estimation never under-counts a partial token —
// this is what keeps the estimator monotone as content grows.
func tokensForChars(n int, divisor float64) int {
	if divisor <= 0 || n <= 0 {
		return 0
	}
	whole := n / int(divisor)
	if n%int(divisor) != 0 {
		whole++
	}
	return whole
}

func applyCap(tokens, cap int) int {
	if cap > 0 && tokens > cap {
		return cap
	}
	return tokens
}
