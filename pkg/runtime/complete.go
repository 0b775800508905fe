package runtime

import (
	"context"

	"github.com/mindfulware/companion/pkg/config"
	"github.com/mindfulware/companion/pkg/llm"
	"github.com/mindfulware/companion/pkg/prompt"
)

// Complete formats a single-turn companion prompt, runs a non-streaming
// generation, and returns the extracted assistant reply. An empty adapter
// targets the base model alone.
func (c *Client) Complete(ctx context.Context, model, adapter, contextText, userText string, gen config.Generation) (string, error) {
	req := &llm.GenerateRequest{
		Model:   model,
		Adapter: adapter,
		Prompt:  prompt.ForGeneration(contextText, userText),
		Raw:     true,
		Options: &llm.Options{
			Temperature: llm.Float64(gen.Temperature),
			TopP:        llm.Float64(gen.TopP),
			NumPredict:  llm.Int(gen.MaxNewTokens),
			Stop:        []string{prompt.TurnTerminator},
		},
	}

	resp, err := c.Generate(ctx, req)
	if err != nil {
		return "", err
	}

	return prompt.ExtractResponse(resp.Response), nil
}
