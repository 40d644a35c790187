package doctor

import (
	"context"
	"os/exec"
)

// lookPathFunc is the function used to find executables on PATH.
// Package-level variable to allow test overrides.
var lookPathFunc = exec.LookPath

// Tool is an external program the engine shells out to.
type Tool struct {
	Name    string // label shown in the report
	Command string // program looked up on PATH
	Purpose string
}

// ToolsCheck verifies that required external tools are available on $PATH.
type ToolsCheck struct {
	tools []Tool
}

// NewToolsCheck creates a new tools check.
func NewToolsCheck(tools []Tool) *ToolsCheck {
	return &ToolsCheck{tools: tools}
}

func (c *ToolsCheck) Name() string {
	return "Tools"
}

func (c *ToolsCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name()}

	if len(c.tools) == 0 {
		result.Items = append(result.Items, CheckItem{
			Label:  "tools",
			Status: StatusPass,
			Detail: "none required",
		})
		return result
	}

	for _, tool := range c.tools {
		path, err := lookPathFunc(tool.Command)
		if err != nil {
			detail := tool.Command + " not found on PATH"
			if tool.Purpose != "" {
				detail += " (" + tool.Purpose + ")"
			}
			result.Items = append(result.Items, CheckItem{
				Label:  tool.Name,
				Status: StatusFail,
				Detail: detail,
			})
			continue
		}

		result.Items = append(result.Items, CheckItem{
			Label:  tool.Name,
			Status: StatusPass,
			Detail: path,
		})
	}

	return result
}
