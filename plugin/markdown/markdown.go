// Package markdown renders note content.
package markdown

import (
	"bytes"
	"strings"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// Service renders markdown with GitHub flavored extensions.
// Raw HTML in the source is omitted from the output.
type Service struct {
	md goldmark.Markdown
}

func NewService() *Service {
	return &Service{
		md: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// RenderHTML converts content to HTML.
func (s *Service) RenderHTML(content string) (string, error) {
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(content), &buf); err != nil {
		return "", errors.Wrap(err, "failed to render markdown")
	}
	return buf.String(), nil
}

// Snippet returns the plain text of content with whitespace collapsed,
// cut to at most maxRunes runes followed by "..." when longer.
func (s *Service) Snippet(content string, maxRunes int) (string, error) {
	source := []byte(content)
	doc := s.md.Parser().Parse(text.NewReader(source))

	var buf strings.Builder
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if n.Type() == ast.TypeBlock {
				buf.WriteByte(' ')
			}
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Text:
			buf.Write(node.Segment.Value(source))
			if node.SoftLineBreak() || node.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(node.Value)
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				segment := lines.At(i)
				buf.Write(segment.Value(source))
			}
		case *ast.RawHTML, *ast.HTMLBlock:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to walk markdown")
	}

	plain := strings.Join(strings.Fields(buf.String()), " ")
	runes := []rune(plain)
	if maxRunes > 0 && len(runes) > maxRunes {
		return string(runes[:maxRunes]) + "...", nil
	}
	return plain, nil
}
