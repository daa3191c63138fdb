package testutil

import (
	"time"

	"blendassist/model"
)

// TestConversation returns a short user/assistant exchange for testing
func TestConversation() *model.Conversation {
	c := model.NewConversation()
	c.Append(model.ChatMessage{
		Role:      model.RoleUser,
		Content:   "add a cube",
		Timestamp: time.Now(),
	})
	c.Append(model.ChatMessage{
		Role:      model.RoleAssistant,
		Content:   "bpy.ops.mesh.primitive_cube_add()",
		Timestamp: time.Now(),
	})
	return c
}

// TestRequest returns an assembled request with a system entry, one exchange and a final instruction
func TestRequest(task string) model.ModelRequest {
	history := TestConversation().Messages()
	messages := []model.ChatMessage{{Role: model.RoleSystem, Content: "You are a Blender assistant."}}
	messages = append(messages, history...)
	messages = append(messages, model.ChatMessage{Role: model.RoleUser, Content: task})

	return model.ModelRequest{
		SystemPrompt: "You are a Blender assistant.",
		Task:         task,
		History:      history,
		Messages:     messages,
		Params:       model.DefaultParams(),
	}
}
