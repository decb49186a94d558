package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"loyalty_qa/pkg"
)

// Completer turns a set of slot bindings into generated text.
type Completer interface {
	Complete(ctx context.Context, vars map[string]any) (string, error)
}

// chainCompleter runs an eino chain: Template -> ChatModel.
type chainCompleter struct {
	chain compose.Runnable[map[string]any, *schema.Message]
}

// NewCompleter compiles a template and chat model into a Completer.
func NewCompleter(ctx context.Context, cm model.BaseChatModel, template prompt.ChatTemplate) (Completer, error) {
	chain, err := compose.NewChain[map[string]any, *schema.Message]().
		AppendChatTemplate(template).
		AppendChatModel(cm).
		Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("error compiling generation chain: %w", err)
	}

	return &chainCompleter{chain: chain}, nil
}

func (c *chainCompleter) Complete(ctx context.Context, vars map[string]any) (string, error) {
	msg, err := c.chain.Invoke(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("%w: %v", pkg.ErrGenerationService, err)
	}
	if strings.TrimSpace(msg.Content) == "" {
		return "", fmt.Errorf("%w: empty completion", pkg.ErrGenerationService)
	}
	return msg.Content, nil
}
