package provider

import (
	"context"
	"errors"
	"net"
	"net/url"

	"blendassist/model"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/ollama/ollama/api"
	"github.com/openai/openai-go/v3"
)

// WireMessage is the {role, content} shape used in the /generate chat_history field.
type WireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ConvertToWireMessages converts chat messages to plain {role, content} pairs.
// The result is never nil so it encodes as [] rather than null.
func ConvertToWireMessages(messages []model.ChatMessage) []WireMessage {
	result := make([]WireMessage, len(messages))
	for i, msg := range messages {
		result[i] = WireMessage{Role: string(msg.Role), Content: msg.Content}
	}
	return result
}

// ConvertToOllamaMessages converts chat messages to Ollama api.Message.
// Timestamps are not preserved; the Ollama API has no field for them.
func ConvertToOllamaMessages(messages []model.ChatMessage) []api.Message {
	result := make([]api.Message, len(messages))
	for i, msg := range messages {
		result[i] = api.Message{
			Role:    string(msg.Role),
			Content: msg.Content,
		}
	}
	return result
}

// ConvertToOpenAIMessages converts chat messages to OpenAI message params.
// Unknown roles are sent as user messages.
func ConvertToOpenAIMessages(messages []model.ChatMessage) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, len(messages))

	for i, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			result[i] = openai.SystemMessage(msg.Content)
		case model.RoleAssistant:
			result[i] = openai.AssistantMessage(msg.Content)
		default:
			result[i] = openai.UserMessage(msg.Content)
		}
	}

	return result
}

// convertToAnthropicMessages converts chat messages to Anthropic format.
// System entries go to the separate system parameter.
func convertToAnthropicMessages(messages []model.ChatMessage) ([]anthropic.MessageParam, []anthropic.TextBlockParam) {
	var systemBlocks []anthropic.TextBlockParam
	anthropicMsgs := make([]anthropic.MessageParam, 0, len(messages))

	for _, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			if msg.Content == "" {
				continue
			}
			systemBlocks = append(systemBlocks, anthropic.TextBlockParam{
				Text: msg.Content,
			})
		case model.RoleAssistant:
			anthropicMsgs = append(anthropicMsgs,
				anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)),
			)
		default:
			anthropicMsgs = append(anthropicMsgs,
				anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)),
			)
		}
	}

	return anthropicMsgs, systemBlocks
}

// isTransportError reports whether err came from reaching the server at all.
func isTransportError(err error) bool {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
