package provider

import (
	"context"
	"io"
)

// Generator is the outbound text-generation port.
type Generator interface {
	Generate(ctx context.Context, apiKey string, prompt string) (string, error)
}

// Transcriber is the outbound speech-to-text port.
type Transcriber interface {
	Transcribe(ctx context.Context, apiKey string, filename string, audio io.Reader) (string, error)
}
