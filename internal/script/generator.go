package script

import (
	"context"

	"github.com/avelume/tutorialcast/internal/llm"
)

// TextGenerator produces narration text for one section instruction. The
// planner treats any error as "use the fallback sentence"; implementations
// must not retry internally.
type TextGenerator interface {
	Generate(ctx context.Context, instruction string, maxWords int) (string, error)
}

const generatorSystemPrompt = "Eres un guionista de videos tutoriales cortos. " +
	"Responde únicamente con el texto narrado, sin títulos ni acotaciones."

type llmGenerator struct {
	client *llm.Client
}

// NewLLMGenerator adapts a chat-completions client to the planner's text
// capability.
func NewLLMGenerator(client *llm.Client) TextGenerator {
	return llmGenerator{client: client}
}

// tokensPerWord oversizes the response budget; Spanish text runs well under
// two tokens per word, so the cap bounds runaway output without clipping a
// section that fills its allocation.
const tokensPerWord = 2

func (g llmGenerator) Generate(ctx context.Context, instruction string, maxWords int) (string, error) {
	opts := llm.NewChatCompletionOptions().WithSystemPrompt(generatorSystemPrompt)
	if maxWords > 0 {
		opts = opts.WithMaxTokens(maxWords * tokensPerWord)
	}
	return g.client.CompleteWithOptions(ctx, instruction, opts)
}
