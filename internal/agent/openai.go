package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

const systemPrompt = `You are a clinical records assistant. Answer the user's question about a patient by calling the available tools.
Every tool takes a single "input" string. Pass the part of the question that identifies the patient (an ID such as "patient 1" or a full name) and, for trends, the lab test of interest.
Do not invent clinical data. When a tool reports that it could not identify the patient, tell the user to specify a valid patient name or ID.`

// OpenAIAgent runs the tool loop on the chat completions API with function
// calling.
type OpenAIAgent struct {
	client        *openai.Client
	model         string
	maxIterations int
	logger        zerolog.Logger
}

// NewOpenAIAgent builds an agent. maxIterations <= 0 falls back to
// DefaultMaxIterations.
func NewOpenAIAgent(client *openai.Client, model string, maxIterations int, logger zerolog.Logger) *OpenAIAgent {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	return &OpenAIAgent{
		client:        client,
		model:         model,
		maxIterations: maxIterations,
		logger:        logger.With().Str("component", "agent").Logger(),
	}
}

// NewOpenAIClient configures the API client. An empty baseURL keeps the
// public endpoint.
func NewOpenAIClient(apiKey, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(cfg)
}

// Run sends the question to the model and executes the tool calls it asks for
// until it replies without any, or until the iteration cap is hit.
func (a *OpenAIAgent) Run(ctx context.Context, input string, tools []Tool) (string, error) {
	start := time.Now()
	registry := NewRegistry(tools...)

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: input},
	}
	defs := toolDefinitions(tools)

	for iteration := 1; iteration <= a.maxIterations; iteration++ {
		resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:    a.model,
			Messages: messages,
			Tools:    defs,
		})
		if err != nil {
			a.observe(start, iteration, "error")
			return "", fmt.Errorf("chat completion (iteration %d): %w", iteration, err)
		}
		if len(resp.Choices) == 0 {
			a.observe(start, iteration, "error")
			return "", fmt.Errorf("chat completion (iteration %d): empty choices", iteration)
		}

		msg := resp.Choices[0].Message
		a.logger.Debug().
			Int("iteration", iteration).
			Int("tool_calls", len(msg.ToolCalls)).
			Str("finish_reason", string(resp.Choices[0].FinishReason)).
			Msg("model replied")

		if len(msg.ToolCalls) == 0 {
			a.observe(start, iteration, "ok")
			a.logger.Info().
				Int("iterations", iteration).
				Dur("duration", time.Since(start)).
				Msg("agent run finished")
			return msg.Content, nil
		}

		messages = append(messages, msg)
		for _, call := range msg.ToolCalls {
			observation, err := a.dispatch(ctx, registry, call)
			if err != nil {
				a.observe(start, iteration, "error")
				return "", err
			}
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    observation,
				Name:       call.Function.Name,
				ToolCallID: call.ID,
			})
		}
	}

	a.observe(start, a.maxIterations, "max_iterations")
	a.logger.Warn().Int("max_iterations", a.maxIterations).Msg("agent hit iteration limit")
	return "", ErrMaxIterations
}

func (a *OpenAIAgent) dispatch(ctx context.Context, registry *Registry, call openai.ToolCall) (string, error) {
	name := call.Function.Name
	tool, ok := registry.Get(name)
	if !ok {
		a.logger.Debug().Str("tool", name).Msg("model requested unknown tool")
		return fmt.Sprintf("%s is not a valid tool, try one of [%s].", name, strings.Join(registry.Names(), ", ")), nil
	}

	input := ToolInput(call.Function.Arguments)
	a.logger.Debug().Str("tool", name).Str("input", input).Msg("invoking tool")

	out, err := tool.Invoke(ctx, input)
	if err != nil {
		return "", fmt.Errorf("tool %s: %w", name, err)
	}
	return out, nil
}

func (a *OpenAIAgent) observe(start time.Time, iterations int, status string) {
	agentRunDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
	agentIterations.Observe(float64(iterations))
}

// ToolInput extracts the "input" argument from a function call. Anything
// else is passed through unchanged.
func ToolInput(arguments string) string {
	var args struct {
		Input *string `json:"input"`
	}
	if err := json.Unmarshal([]byte(arguments), &args); err != nil || args.Input == nil {
		return arguments
	}
	return *args.Input
}

func toolDefinitions(tools []Tool) []openai.Tool {
	defs := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		defs = append(defs, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters: jsonschema.Definition{
					Type: jsonschema.Object,
					Properties: map[string]jsonschema.Definition{
						"input": {
							Type:        jsonschema.String,
							Description: "The question text, including the patient ID or name.",
						},
					},
					Required: []string{"input"},
				},
			},
		})
	}
	return defs
}
