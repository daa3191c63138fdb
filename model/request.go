package model

// Backend selects the inference provider for a single request.
type Backend string

const (
	BackendLocal  Backend = "local"
	BackendHosted Backend = "hosted"
)

// Params are the sampling parameters forwarded to the backend.
type Params struct {
	Temperature float64
	TopP        float64
	MaxTokens   int
}

// DefaultParams returns the sampling parameters used when the caller supplies none.
func DefaultParams() Params {
	return Params{
		Temperature: 0.7,
		TopP:        0.9,
		MaxTokens:   1500,
	}
}

// ModelRequest is built fresh for every call and never mutated afterwards.
//
// History is the trimmed raw window (at most HistoryWindow entries, unfenced).
// Messages is the fully assembled chat: exactly one system entry first, the
// history window, then the final user instruction.
type ModelRequest struct {
	SystemPrompt string
	Task         string
	History      []ChatMessage
	Messages     []ChatMessage
	Params       Params
}

// HistoryWindow is the number of most recent conversation entries sent with each request.
const HistoryWindow = 10
