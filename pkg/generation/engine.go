// Package generation defines the response-generation seam. The core
// treats generation as opaque text in, text out; adapters range from a
// deterministic template (default, no network) to a real model call.
package generation

import (
	"context"
)

// Option is a function that configures a generation request.
type Option func(*Options)

// Options holds configuration for a generation request.
type Options struct {
	// Temperature controls randomness in generation (0.0-1.0)
	Temperature float64

	// MaxTokens limits the length of the generated response
	MaxTokens int

	// Model specifies which model variant to use
	Model string
}

// DefaultOptions returns default generation options.
func DefaultOptions() Options {
	return Options{
		Temperature: 0.7,
		MaxTokens:   1024,
		Model:       "", // Empty means use the adapter's default
	}
}

// WithTemperature sets the temperature option.
func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

// WithMaxTokens sets the max tokens option.
func WithMaxTokens(tokens int) Option {
	return func(o *Options) {
		o.MaxTokens = tokens
	}
}

// WithModel sets the model option.
func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// Engine is the interface for response-generation backends.
type Engine interface {
	// Process sends a prompt to the engine and returns the result.
	Process(ctx context.Context, prompt string, opts ...Option) (string, error)

	// GenerateEmbeddings creates dense vector embeddings for the
	// provided texts. Backends without an embedding model return an
	// error; only embedding-backed indexes call this.
	GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}
