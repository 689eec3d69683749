package agent

import (
	"strings"

	"github.com/Cyclone1070/deskpal/internal/capability"
	"github.com/Cyclone1070/deskpal/internal/directive"
)

// BuildSystemPrompt appends the tool protocol to persona. Sections for
// disabled tools are left out so the model does not try them.
func BuildSystemPrompt(persona string, decls []capability.Declaration, allowSystemTools, allowNetwork bool) string {
	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(persona))

	if !allowSystemTools && !allowNetwork {
		return sb.String()
	}

	sb.WriteString("\n\n## Tools\n")
	sb.WriteString("When you need live information or want to act on this computer, reply with exactly one tool line and nothing after it.\n")

	if allowSystemTools && len(decls) > 0 {
		sb.WriteString("\nLocal functions:\n")
		sb.WriteString(directive.SystemMarker + ` {"function": "<name>", "params": {...}}` + "\n")
		for _, d := range decls {
			sb.WriteString("- ")
			sb.WriteString(d.Signature())
			sb.WriteString("\n")
		}
	}

	if allowNetwork {
		sb.WriteString("\nHTTP requests:\n")
		sb.WriteString(directive.FetchMarker + ` {"url": "https://...", "method": "GET", "headers": {}, "body": null}` + "\n")
	}

	sb.WriteString("\nThe result comes back as a message starting with " + ToolResultPrefix + ". ")
	sb.WriteString("Use it to answer the user in plain language. Never invent tool results.")
	return sb.String()
}
