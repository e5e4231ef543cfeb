package contract

import "context"

// Responder turns a customer message plus history into a reply, calling
// tools as needed.
type Responder interface {
	Respond(ctx context.Context, req RespondRequest) (RespondResponse, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	ModelName() string
}

type ToolGateway interface {
	Execute(ctx context.Context, reqs []ToolRequest) ([]ToolResult, error)
}
