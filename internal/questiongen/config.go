package questiongen

// Config controls the behavior of the Generator.
type Config struct {
	// MaxTokens is the token budget for one batch.
	MaxTokens int

	// Temperature controls LLM output randomness (0.0-1.0).
	Temperature float64

	// MaxExisting is the maximum number of existing prompts listed in the
	// request so the model avoids repeating them.
	MaxExisting int

	// MaxOptionBytes bounds each option. Answer buttons carry the option
	// text in their callback data, which Telegram caps at 64 bytes.
	MaxOptionBytes int

	// MaxBatch is the largest n accepted by Generate.
	MaxBatch int
}

// DefaultConfig returns the recommended defaults.
func DefaultConfig() Config {
	return Config{
		MaxTokens:      2048,
		Temperature:    0.7,
		MaxExisting:    20,
		MaxOptionBytes: 48,
		MaxBatch:       10,
	}
}
