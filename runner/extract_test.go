package runner

import "testing"

func TestExtractCode(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		strip bool
		want  string
	}{
		{"bare snippet", "bpy.ops.mesh.primitive_cube_add()", true, "bpy.ops.mesh.primitive_cube_add()"},
		{"bare fence", "```\nimport bpy\nbpy.ops.mesh.primitive_cube_add()\n```", true, "import bpy\nbpy.ops.mesh.primitive_cube_add()"},
		{"python fence", "```python\nbpy.ops.mesh.primitive_cube_add()\n```", true, "bpy.ops.mesh.primitive_cube_add()"},
		{"fence with prose", "Here you go:\n```py\nx = 1\n```\nEnjoy.", true, "x = 1"},
		{"single line fence", "```bpy.ops.object.delete()```", true, "bpy.ops.object.delete()"},
		{"unterminated fence", "```python\nx = 1\n", true, "x = 1"},
		{"verbatim when disabled", "```python\nx = 1\n```", false, "```python\nx = 1\n```"},
		{"whitespace only", "  \n ", true, ""},
		{
			"backticks inside a string literal",
			"import bpy\nbpy.context.object.name = \"```\"\nbpy.ops.mesh.primitive_cube_add()",
			true,
			"import bpy\nbpy.context.object.name = \"```\"\nbpy.ops.mesh.primitive_cube_add()",
		},
		{
			"backticks inside a fenced block",
			"```python\nlabel = \"```\"\nbpy.ops.mesh.primitive_cube_add()\n```",
			true,
			"label = \"```\"\nbpy.ops.mesh.primitive_cube_add()",
		},
		{"inline mention in prose", "Use ``` fences for code.\nx = 1", true, "Use ``` fences for code.\nx = 1"},
		{"closing fence on the last code line", "```python\nx = 1```", true, "x = 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractCode(tt.reply, tt.strip); got != tt.want {
				t.Errorf("ExtractCode() = %q, want %q", got, tt.want)
			}
		})
	}
}
