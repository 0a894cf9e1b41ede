package definitions

import (
	"bytes"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(
		meta.Meta,
		extension.GFM,
	),
)

// RenderHTML renders a markdown definition to HTML. Front matter is consumed
// rather than rendered.
func RenderHTML(raw string) (string, error) {
	var buf bytes.Buffer
	pctx := parser.NewContext()
	if err := markdown.Convert([]byte(raw), &buf, parser.WithContext(pctx)); err != nil {
		return "", errors.Wrap(err, "failed to convert markdown")
	}
	return buf.String(), nil
}
