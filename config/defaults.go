package config

// DefaultSystemPrompt asks for fenced Python; the final per-request instruction asks for bare code.
// Both are kept as-is, see fence_assistant_history and strip_reply_fences.
const DefaultSystemPrompt = `
You are an assistant made for the purposes of helping the user with Blender, the 3D software.
- Respond only with Python code wrapped in triple backticks (` + "```" + `).
- Focus on executing Python code with Blender-specific commands to modify meshes, create objects, and manage the scene.
- Avoid unnecessary imports, and minimize any destructive operations.
- Ensure code execution is as efficient as possible, making use of available hardware acceleration.
`

func DefaultSystemConfig() *SystemConfig {
	return &SystemConfig{
		DataDirectory: "~/.local/share/blendassist",
	}
}

func DefaultUserConfig() *UserConfig {
	return &UserConfig{
		Backend:               BackendLocal,
		FenceAssistantHistory: true,
		StripReplyFences:      true,
		Local: LocalConfig{
			Kind:  "generate",
			URL:   "http://localhost:5000/generate",
			Host:  "http://localhost:11434",
			Model: "llama",
		},
		Hosted: HostedConfig{
			Provider: "openai",
			Model:    "gpt-4",
		},
		Params: ParamsConfig{
			Temperature: 0.7,
			TopP:        0.9,
			MaxTokens:   1500,
		},
		Blender: BlenderConfig{
			Path:           "blender",
			SaveScene:      true,
			TimeoutSeconds: 0,
		},
	}
}

func GenerateSystemConfigTemplate() string {
	return `# blendassist System Configuration
# Location: ~/.config/blendassist/settings.toml
# This file uses TOML format: https://toml.io

# Directory where the user config, credentials and logs are stored
data_directory = "~/.local/share/blendassist"
`
}

func GenerateUserConfigTemplate() string {
	return `# blendassist User Configuration
# Location: <data_directory>/config.toml
# This file uses TOML format: https://toml.io

# Which backend answers requests: "local" or "hosted"
backend = "local"

# System prompt sent before the chat history (empty = built-in Blender prompt)
system_prompt = ""

# Wrap previous assistant replies in triple backticks when sending history
fence_assistant_history = true

# Strip a surrounding triple-backtick fence from replies before running them
strip_reply_fences = true

[local]
# "generate" posts to a plain /generate endpoint, "ollama" talks to an Ollama server
kind = "generate"
url = "http://localhost:5000/generate"
host = "http://localhost:11434"
model = "llama"

[hosted]
# "openai" or "anthropic"; the API key lives in credentials.toml or
# OPENAI_API_KEY / ANTHROPIC_API_KEY
provider = "openai"
model = "gpt-4"

[params]
temperature = 0.7
top_p = 0.9
max_tokens = 1500

[blender]
# Blender executable used to run generated code headless
path = "blender"
# .blend file the code runs against (empty = Blender's startup scene)
scene = ""
# Save the scene file after each run
save_scene = true
# 0 = wait for Blender as long as it takes
timeout_seconds = 0

[audit]
# Record every executed snippet in <data_directory>/audit.db
enabled = false
`
}
