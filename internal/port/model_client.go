package port

import "context"

// GenerateInput carries one text-generation request. Temperature is honored
// exactly; extraction callers pin it to 0 because deterministic output is a
// correctness requirement, not a style choice.
type GenerateInput struct {
	Prompt      string
	Model       string
	MaxTokens   int
	Temperature float64
}

// VisionInput carries a generation request with an image payload.
type VisionInput struct {
	Prompt           string
	Model            string
	MaxTokens        int
	Temperature      float64
	ImageBytes       []byte
	ImageContentType string
}

// GenerateOutput is the model's response with token accounting.
type GenerateOutput struct {
	Content      string
	InputTokens  int
	OutputTokens int
}

// ModelClient abstracts the external language model. Implementations must
// surface retryable failures as resilience.TransientError so the caller's
// retry policy can distinguish them from terminal ones.
type ModelClient interface {
	GenerateText(ctx context.Context, input GenerateInput) (*GenerateOutput, error)
	GenerateVision(ctx context.Context, input VisionInput) (*GenerateOutput, error)
}
