// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

package jiracli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// adfNode is a node of an Atlassian Document Format tree, the rich
// text representation Jira Cloud uses for descriptions and comments.
type adfNode struct {
	Type    string         `json:"type"`
	Content []adfNode      `json:"content,omitempty"`
	Text    string         `json:"text,omitempty"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Marks   []adfMark      `json:"marks,omitempty"`
}

type adfMark struct {
	Type  string         `json:"type"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

// richText decodes a description or comment body. Jira Cloud returns
// an ADF document; Jira Server returns plain wiki text as a JSON
// string. Both come back as markdown-ish text with trailing blank
// lines removed.
func richText(raw json.RawMessage) (string, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return "", nil
	}
	if trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return "", fmt.Errorf("decoding text body: %w", err)
		}
		return strings.TrimSpace(text), nil
	}
	var document adfNode
	if err := json.Unmarshal(raw, &document); err != nil {
		return "", fmt.Errorf("decoding document body: %w", err)
	}
	return renderADF(&document), nil
}

func renderADF(node *adfNode) string {
	var builder strings.Builder
	renderNode(&builder, node, "")
	return strings.TrimRight(builder.String(), "\n ")
}

func renderNode(builder *strings.Builder, node *adfNode, listPrefix string) {
	switch node.Type {
	case "doc":
		renderChildren(builder, node)

	case "paragraph":
		renderChildren(builder, node)
		builder.WriteString("\n\n")

	case "heading":
		level := 2
		if value, ok := node.Attrs["level"].(float64); ok && value >= 1 && value <= 6 {
			level = int(value)
		}
		builder.WriteString(strings.Repeat("#", level))
		builder.WriteString(" ")
		renderChildren(builder, node)
		builder.WriteString("\n\n")

	case "bulletList", "orderedList":
		for index := range node.Content {
			prefix := listPrefix + "- "
			if node.Type == "orderedList" {
				prefix = listPrefix + strconv.Itoa(index+1) + ". "
			}
			renderListItem(builder, &node.Content[index], listPrefix, prefix)
		}
		if listPrefix == "" {
			builder.WriteString("\n")
		}

	case "codeBlock":
		language, _ := node.Attrs["language"].(string)
		builder.WriteString("```")
		builder.WriteString(language)
		builder.WriteString("\n")
		for _, child := range node.Content {
			builder.WriteString(child.Text)
		}
		builder.WriteString("\n```\n\n")

	case "blockquote":
		var inner strings.Builder
		renderChildren(&inner, node)
		for _, line := range strings.Split(strings.TrimRight(inner.String(), "\n"), "\n") {
			builder.WriteString("> ")
			builder.WriteString(line)
			builder.WriteString("\n")
		}
		builder.WriteString("\n")

	case "rule":
		builder.WriteString("---\n\n")

	case "text":
		builder.WriteString(applyMarks(node.Text, node.Marks))

	case "hardBreak":
		builder.WriteString("\n")

	case "mention":
		name, _ := node.Attrs["text"].(string)
		builder.WriteString("@")
		builder.WriteString(strings.TrimPrefix(name, "@"))

	case "inlineCard":
		url, _ := node.Attrs["url"].(string)
		builder.WriteString("<" + url + ">")

	case "emoji":
		text, _ := node.Attrs["text"].(string)
		if text == "" {
			text, _ = node.Attrs["shortName"].(string)
		}
		builder.WriteString(text)

	case "media", "mediaSingle", "mediaGroup":
		builder.WriteString("[attachment]\n\n")

	default:
		// Panels, expands, tables, and other containers: keep their
		// text.
		renderChildren(builder, node)
	}
}

// renderListItem writes one list item. The first paragraph sits on
// the bullet line; nested lists are indented under it.
func renderListItem(builder *strings.Builder, item *adfNode, indent, prefix string) {
	builder.WriteString(prefix)
	wroteLine := false
	for index := range item.Content {
		child := &item.Content[index]
		switch child.Type {
		case "paragraph":
			if wroteLine {
				builder.WriteString(strings.Repeat(" ", len(prefix)))
			}
			renderChildren(builder, child)
			builder.WriteString("\n")
			wroteLine = true
		case "bulletList", "orderedList":
			if !wroteLine {
				builder.WriteString("\n")
				wroteLine = true
			}
			renderNode(builder, child, indent+"  ")
		default:
			renderNode(builder, child, indent)
		}
	}
	if !wroteLine {
		builder.WriteString("\n")
	}
}

func renderChildren(builder *strings.Builder, node *adfNode) {
	for index := range node.Content {
		renderNode(builder, &node.Content[index], "")
	}
}

func applyMarks(text string, marks []adfMark) string {
	for _, mark := range marks {
		switch mark.Type {
		case "strong":
			text = "**" + text + "**"
		case "em":
			text = "*" + text + "*"
		case "code":
			text = "`" + text + "`"
		case "strike":
			text = "~~" + text + "~~"
		case "link":
			href, _ := mark.Attrs["href"].(string)
			if href != "" {
				text = "[" + text + "](" + href + ")"
			}
		}
	}
	return text
}
