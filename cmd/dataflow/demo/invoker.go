// Package demo provides an illustrative invoke.Invoker for the CLI's
// "run" subcommand — not the committed function library spec.md's
// Non-goals explicitly exclude, just enough callables (two LLM-backed
// ones grounded on the teacher's internal/infrastructure/llm clients, plus
// arithmetic/echo stand-ins) to run the CLI end to end against a real
// graph document.
package demo

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	openai "github.com/sashabaranov/go-openai"

	"github.com/nodeshop/dataflow/internal/datatype"
	"github.com/nodeshop/dataflow/internal/invoke"
)

const (
	// FunctionAnthropicPrompt sends its single string input to Claude as a
	// user message and returns the first text block as its single string
	// output.
	FunctionAnthropicPrompt invoke.FunctionID = "demo.anthropic_prompt"

	// FunctionOpenAIChat does the same against a GPT chat-completion model.
	FunctionOpenAIChat invoke.FunctionID = "demo.openai_chat"

	// FunctionAdd sums its two float inputs.
	FunctionAdd invoke.FunctionID = "demo.add"

	// FunctionEcho passes its single input straight through, useful as a
	// sink or a placeholder producer while wiring up a graph by hand.
	FunctionEcho invoke.FunctionID = "demo.echo"
)

// Invoker dispatches the four demo FunctionIDs above. A zero-value
// Invoker works for Add/Echo; the LLM-backed functions require their
// respective client to be set.
type Invoker struct {
	Anthropic     *anthropic.Client
	AnthropicModel anthropic.Model
	OpenAI        *openai.Client
	OpenAIModel   string
}

// NewInvoker builds an Invoker. Either API key may be empty, in which case
// calling that function returns an error rather than panicking.
func NewInvoker(anthropicAPIKey, openaiAPIKey string) *Invoker {
	inv := &Invoker{
		AnthropicModel: anthropic.Model("claude-3-5-sonnet-latest"),
		OpenAIModel:    openai.GPT4oMini,
	}
	if anthropicAPIKey != "" {
		inv.Anthropic = anthropic.NewClient(option.WithAPIKey(anthropicAPIKey))
	}
	if openaiAPIKey != "" {
		inv.OpenAI = openai.NewClient(openaiAPIKey)
	}
	return inv
}

// AllFunctions implements invoke.Invoker.
func (i *Invoker) AllFunctions() []invoke.FunctionID {
	return []invoke.FunctionID{FunctionAnthropicPrompt, FunctionOpenAIChat, FunctionAdd, FunctionEcho}
}

// Invoke implements invoke.Invoker.
func (i *Invoker) Invoke(ctx context.Context, function invoke.FunctionID, invokeCtx *invoke.Context, inputs invoke.Args, outputs invoke.Args) error {
	switch function {
	case FunctionAnthropicPrompt:
		return i.invokeAnthropic(ctx, inputs, outputs)
	case FunctionOpenAIChat:
		return i.invokeOpenAI(ctx, inputs, outputs)
	case FunctionAdd:
		return invokeAdd(inputs, outputs)
	case FunctionEcho:
		return invokeEcho(inputs, outputs)
	default:
		return fmt.Errorf("demo: unknown function %q", function)
	}
}

func (i *Invoker) invokeAnthropic(ctx context.Context, inputs, outputs invoke.Args) error {
	if i.Anthropic == nil {
		return fmt.Errorf("demo: anthropic function called without an API key configured")
	}
	if len(inputs) != 1 || len(outputs) != 1 {
		return fmt.Errorf("demo: anthropic_prompt expects exactly one input and one output")
	}

	prompt := inputs[0].String
	msg, err := i.Anthropic.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.F(i.AnthropicModel),
		MaxTokens: anthropic.F(int64(1024)),
		Messages: anthropic.F([]anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		}),
	})
	if err != nil {
		return fmt.Errorf("demo: anthropic request failed: %w", err)
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == anthropic.ContentBlockTypeText {
			text += block.Text
		}
	}
	outputs[0] = invoke.Value{Type: datatype.String, String: text}
	return nil
}

func (i *Invoker) invokeOpenAI(ctx context.Context, inputs, outputs invoke.Args) error {
	if i.OpenAI == nil {
		return fmt.Errorf("demo: openai function called without an API key configured")
	}
	if len(inputs) != 1 || len(outputs) != 1 {
		return fmt.Errorf("demo: openai_chat expects exactly one input and one output")
	}

	prompt := inputs[0].String
	resp, err := i.OpenAI.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: i.OpenAIModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return fmt.Errorf("demo: openai request failed: %w", err)
	}

	var text string
	if len(resp.Choices) > 0 {
		text = resp.Choices[0].Message.Content
	}
	outputs[0] = invoke.Value{Type: datatype.String, String: text}
	return nil
}

func invokeAdd(inputs, outputs invoke.Args) error {
	if len(inputs) != 2 || len(outputs) != 1 {
		return fmt.Errorf("demo: add expects exactly two inputs and one output")
	}
	outputs[0] = invoke.Value{Type: datatype.Float, Float: inputs[0].Float + inputs[1].Float}
	return nil
}

func invokeEcho(inputs, outputs invoke.Args) error {
	if len(inputs) != len(outputs) {
		return fmt.Errorf("demo: echo requires matching input/output arity")
	}
	copy(outputs, inputs)
	return nil
}
