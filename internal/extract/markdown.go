package extract

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	apperr "github.com/keenlabs/docvec/internal/pkg/errors"
)

// readMarkdownFile strips markdown structure down to the document's plain
// text, block per line, so the chunker can snap to the original paragraph
// boundaries.
func readMarkdownFile(path string) (string, error) {
	raw, err := readTextFile(path)
	if err != nil {
		return "", err
	}
	out, err := markdownToText(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperr.ErrRead, err)
	}
	return out, nil
}

func markdownToText(markdown string) (string, error) {
	md := goldmark.New()
	source := []byte(markdown)
	reader := text.NewReader(source)
	doc := md.Parser().Parse(reader)

	var blocks []string
	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		switch n := node.(type) {
		case *ast.FencedCodeBlock:
			var sb strings.Builder
			for i := 0; i < n.Lines().Len(); i++ {
				line := n.Lines().At(i)
				sb.Write(line.Value(source))
			}
			if code := strings.TrimSpace(sb.String()); code != "" {
				blocks = append(blocks, code)
			}
		default:
			if txt := blockText(node, source); txt != "" {
				blocks = append(blocks, txt)
			}
		}
	}
	return strings.Join(blocks, "\n"), nil
}

func blockText(n ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if node.Kind() == ast.KindText {
			sb.Write(node.(*ast.Text).Segment.Value(source))
			if node.(*ast.Text).HardLineBreak() || node.(*ast.Text).SoftLineBreak() {
				sb.WriteByte('\n')
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}
