// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

package ticketui

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

var (
	markdownOnce   sync.Once
	markdownParser goldmark.Markdown
)

func descriptionParser() goldmark.Markdown {
	markdownOnce.Do(func() {
		markdownParser = goldmark.New(goldmark.WithExtensions(extension.GFM))
	})
	return markdownParser
}

// wrapBreakpoints are the characters ansi.Wrap may break after in
// addition to spaces.
const wrapBreakpoints = " ,.;-+|/"

// renderDescription renders a ticket description (markdown flattened
// from Jira's document format) as styled terminal text wrapped to
// width. Soft line breaks become spaces so hard-wrapped source text
// reflows.
func renderDescription(input string, theme Theme, width int) string {
	if strings.TrimSpace(input) == "" {
		return ""
	}
	source := []byte(input)
	document := descriptionParser().Parser().Parse(text.NewReader(source))

	// Always ANSI256: the output only ever goes to the bubbletea
	// program, and detection would strip colors when stderr is not a
	// terminal (tests, --log-output redirection).
	renderer := lipgloss.NewRenderer(os.Stderr, termenv.WithProfile(termenv.ANSI256))
	renderer.SetColorProfile(termenv.ANSI256)

	walker := &descriptionWalker{
		source:   source,
		theme:    theme,
		width:    max(width, 10),
		renderer: renderer,
	}
	_ = ast.Walk(document, walker.walk)
	return strings.TrimRight(walker.output.String(), "\n")
}

// descriptionWalker accumulates inline content per block and wraps it
// when the block closes.
type descriptionWalker struct {
	source   []byte
	theme    Theme
	width    int
	renderer *lipgloss.Renderer

	output strings.Builder
	inline strings.Builder

	// prefix is prepended to every emitted line (blockquote bars and
	// list indentation); bullet replaces it for the next line only.
	prefix string
	bullet string

	bold, italic, strike int
	lists                []listLevel
}

type listLevel struct {
	ordered bool
	next    int
	tight   bool
}

func (walker *descriptionWalker) style() lipgloss.Style {
	return walker.renderer.NewStyle()
}

func (walker *descriptionWalker) text(content string) string {
	style := walker.style().Foreground(walker.theme.NormalText)
	if walker.bold > 0 {
		style = style.Bold(true)
	}
	if walker.italic > 0 {
		style = style.Italic(true)
	}
	if walker.strike > 0 {
		style = style.Strikethrough(true)
	}
	return style.Render(content)
}

// emit writes content line by line with the current prefixes.
func (walker *descriptionWalker) emit(content string) {
	for _, line := range strings.Split(content, "\n") {
		prefix := walker.prefix
		if walker.bullet != "" {
			prefix, walker.bullet = walker.bullet, ""
		}
		walker.output.WriteString(prefix + line + "\n")
	}
}

func (walker *descriptionWalker) blankLine() {
	if walker.output.Len() == 0 || strings.HasSuffix(walker.output.String(), "\n\n") {
		return
	}
	walker.output.WriteString("\n")
}

func (walker *descriptionWalker) tight() bool {
	return len(walker.lists) > 0 && walker.lists[len(walker.lists)-1].tight
}

func (walker *descriptionWalker) flush(style *lipgloss.Style) {
	content := walker.inline.String()
	walker.inline.Reset()
	if content == "" {
		return
	}
	if style != nil {
		content = style.Render(ansi.Strip(content))
	}
	available := max(walker.width-ansi.StringWidth(walker.prefix), 10)
	walker.emit(ansi.Wrap(content, available, wrapBreakpoints))
	if !walker.tight() {
		walker.blankLine()
	}
}

func (walker *descriptionWalker) lines(node ast.Node) string {
	var code strings.Builder
	segments := node.Lines()
	for index := 0; index < segments.Len(); index++ {
		segment := segments.At(index)
		code.Write(segment.Value(walker.source))
	}
	return strings.TrimRight(code.String(), "\n")
}

func (walker *descriptionWalker) walk(node ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node := node.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		if !entering {
			walker.flush(nil)
		}

	case *ast.Heading:
		if !entering {
			style := walker.style().Bold(true).Foreground(walker.theme.HeaderForeground)
			walker.blankLine()
			walker.flush(&style)
			walker.blankLine()
		}

	case *ast.FencedCodeBlock:
		walker.blankLine()
		walker.emit(walker.highlight(walker.lines(node), string(node.Language(walker.source))))
		walker.blankLine()
		return ast.WalkSkipChildren, nil

	case *ast.CodeBlock:
		walker.blankLine()
		walker.emit(walker.highlight(walker.lines(node), ""))
		walker.blankLine()
		return ast.WalkSkipChildren, nil

	case *ast.Blockquote:
		if entering {
			walker.prefix += "│ "
		} else {
			walker.prefix = strings.TrimSuffix(walker.prefix, "│ ")
			walker.blankLine()
		}

	case *ast.List:
		if entering {
			walker.lists = append(walker.lists, listLevel{ordered: node.IsOrdered(), next: node.Start, tight: node.IsTight})
		} else {
			walker.lists = walker.lists[:len(walker.lists)-1]
			if !walker.tight() {
				walker.blankLine()
			}
		}

	case *ast.ListItem:
		if len(walker.lists) == 0 {
			break
		}
		level := &walker.lists[len(walker.lists)-1]
		marker := "• "
		if level.ordered {
			marker = fmt.Sprintf("%d. ", level.next)
		}
		indent := strings.Repeat(" ", ansi.StringWidth(marker))
		if entering {
			if level.ordered {
				level.next++
			}
			walker.bullet = walker.prefix + walker.style().Foreground(walker.theme.FaintText).Render(marker)
			walker.prefix += indent
		} else {
			walker.prefix = strings.TrimSuffix(walker.prefix, indent)
		}

	case *ast.ThematicBreak:
		rule := walker.style().Foreground(walker.theme.BorderColor).Render(strings.Repeat("─", walker.width))
		walker.blankLine()
		walker.emit(rule)
		walker.blankLine()

	case *ast.Text:
		if entering {
			walker.inline.WriteString(walker.text(string(node.Segment.Value(walker.source))))
			if node.HardLineBreak() {
				walker.inline.WriteString("\n")
			} else if node.SoftLineBreak() {
				walker.inline.WriteString(" ")
			}
		}

	case *ast.String:
		if entering {
			walker.inline.WriteString(walker.text(string(node.Value)))
		}

	case *ast.Emphasis:
		delta := -1
		if entering {
			delta = 1
		}
		if node.Level >= 2 {
			walker.bold += delta
		} else {
			walker.italic += delta
		}

	case *extast.Strikethrough:
		if entering {
			walker.strike++
		} else {
			walker.strike--
		}

	case *ast.CodeSpan:
		var code strings.Builder
		for child := node.FirstChild(); child != nil; child = child.NextSibling() {
			if segment, ok := child.(*ast.Text); ok {
				code.Write(segment.Segment.Value(walker.source))
			}
		}
		walker.inline.WriteString(walker.style().Foreground(walker.theme.StatusReview).Render(code.String()))
		return ast.WalkSkipChildren, nil

	case *ast.Link:
		if !entering {
			destination := string(node.Destination)
			if destination != "" {
				walker.inline.WriteString(" " + walker.style().Foreground(walker.theme.FaintText).Render("("+destination+")"))
			}
		}

	case *ast.AutoLink:
		if entering {
			walker.inline.WriteString(walker.style().Foreground(walker.theme.PendingForeground).Underline(true).Render(string(node.URL(walker.source))))
		}

	case *ast.RawHTML, *ast.HTMLBlock:
		return ast.WalkSkipChildren, nil
	}
	return ast.WalkContinue, nil
}

// highlight syntax-highlights code through chroma, falling back to
// faint plain text for unknown languages.
func (walker *descriptionWalker) highlight(code, language string) string {
	faint := walker.style().Foreground(walker.theme.FaintText)
	if language != "" {
		var buffer strings.Builder
		if err := quick.Highlight(&buffer, code, language, "terminal256", "monokai"); err == nil {
			return strings.TrimRight(buffer.String(), "\n")
		}
	}
	lines := strings.Split(code, "\n")
	for index, line := range lines {
		lines[index] = faint.Render(line)
	}
	return strings.Join(lines, "\n")
}
