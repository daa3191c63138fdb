// Package prompt assembles the message list sent to a completion backend.
//
// The assembled chat always has the same shape:
//
//	system   <system prompt>
//	...      <at most model.HistoryWindow most recent conversation entries>
//	user     <final instruction wrapping the task>
//
// Previous assistant replies can be wrapped in a triple-backtick fence so the
// model recognises its own earlier code (Options.FenceAssistantHistory).
package prompt

import (
	"blendassist/model"
)

const fence = "```"

// Options controls the formatting choices of Build.
type Options struct {
	FenceAssistantHistory bool
}

// DefaultOptions matches the behaviour of the default configuration.
func DefaultOptions() Options {
	return Options{FenceAssistantHistory: true}
}

// Instruction wraps a task into the final user message.
func Instruction(task string) string {
	return "Can you please write Blender code for me that accomplishes the following task: " +
		task + "? \n. Do not respond with anything that is not Python code. Do not provide explanations"
}

// FenceCode wraps code in a bare triple-backtick fence.
func FenceCode(code string) string {
	return fence + "\n" + code + "\n" + fence
}

// Build assembles a ModelRequest from the system prompt, the conversation and the new task.
// Only the last model.HistoryWindow conversation entries are used.
func Build(task string, history *model.Conversation, systemPrompt string, params model.Params, opts Options) model.ModelRequest {
	var window []model.ChatMessage
	if history != nil {
		window = history.LastN(model.HistoryWindow)
	}
	return BuildFromWindow(task, window, systemPrompt, params, opts)
}

// BuildFromWindow is Build for callers that already hold the history window.
// Entries beyond the last model.HistoryWindow are dropped.
func BuildFromWindow(task string, window []model.ChatMessage, systemPrompt string, params model.Params, opts Options) model.ModelRequest {
	if len(window) > model.HistoryWindow {
		window = window[len(window)-model.HistoryWindow:]
	}

	historyCopy := make([]model.ChatMessage, len(window))
	copy(historyCopy, window)

	messages := make([]model.ChatMessage, 0, len(window)+2)
	messages = append(messages, model.ChatMessage{Role: model.RoleSystem, Content: systemPrompt})

	for _, msg := range window {
		content := msg.Content
		if msg.Role == model.RoleAssistant && opts.FenceAssistantHistory {
			content = FenceCode(content)
		}
		messages = append(messages, model.ChatMessage{
			Role:      msg.Role,
			Content:   content,
			Timestamp: msg.Timestamp,
		})
	}

	messages = append(messages, model.ChatMessage{Role: model.RoleUser, Content: Instruction(task)})

	return model.ModelRequest{
		SystemPrompt: systemPrompt,
		Task:         task,
		History:      historyCopy,
		Messages:     messages,
		Params:       params,
	}
}
