package ui

import (
	_ "embed"
	"strings"
	"sync"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	"github.com/gomarkdown/markdown/parser"
)

//go:embed help.md
var helpMarkdown []byte

var (
	helpOnce sync.Once
	helpText string
)

// HelpMarkdown returns the key reference source.
func HelpMarkdown() []byte { return append([]byte(nil), helpMarkdown...) }

// HelpText returns the key reference rendered as plain text.
func HelpText() string {
	helpOnce.Do(func() {
		helpText = RenderMarkdown(helpMarkdown)
	})
	return helpText
}

// RenderMarkdown renders headings, paragraphs, lists and code as plain
// terminal text. Inline markup is dropped.
func RenderMarkdown(src []byte) string {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	doc := markdown.Parse(src, p)

	var out, line strings.Builder
	depth := 0
	emit := func(prefix string) {
		text := strings.Join(strings.Fields(line.String()), " ")
		line.Reset()
		if text == "" {
			return
		}
		out.WriteString(prefix + text + "\n")
	}

	ast.WalkFunc(doc, func(node ast.Node, entering bool) ast.WalkStatus {
		switch n := node.(type) {
		case *ast.Heading:
			if !entering {
				title := strings.Join(strings.Fields(line.String()), " ")
				line.Reset()
				if out.Len() > 0 {
					out.WriteString("\n")
				}
				out.WriteString(title + "\n" + strings.Repeat("─", len([]rune(title))) + "\n")
			}
		case *ast.Paragraph:
			if entering {
				return ast.GoToNext
			}
			if _, inItem := n.Parent.(*ast.ListItem); inItem {
				emit(strings.Repeat("  ", max(depth-1, 0)) + "• ")
				return ast.GoToNext
			}
			emit("")
		case *ast.List:
			if entering {
				depth++
			} else {
				depth--
			}
		case *ast.ListItem:
			if !entering && line.Len() > 0 {
				emit(strings.Repeat("  ", max(depth-1, 0)) + "• ")
			}
		case *ast.Text:
			line.Write(n.Literal)
		case *ast.Code:
			line.Write(n.Literal)
		case *ast.CodeBlock:
			for _, l := range strings.Split(strings.TrimRight(string(n.Literal), "\n"), "\n") {
				out.WriteString("    " + l + "\n")
			}
		case *ast.Softbreak, *ast.Hardbreak:
			line.WriteString(" ")
		}
		return ast.GoToNext
	})
	emit("")
	return out.String()
}
