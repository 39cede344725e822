package web

import (
	"bytes"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var markdownRenderer = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		emoji.Emoji,
	),
	goldmark.WithRendererOptions(
		html.WithHardWraps(),
	),
)

var htmlPolicy = bluemonday.UGCPolicy()

// renderDescriptionHTML renders a task description for browser clients. Raw HTML in the source
// is not passed through and the output is sanitized.
func renderDescriptionHTML(src string) string {
	src = strings.TrimSpace(src)
	if src == "" {
		return ""
	}
	var b bytes.Buffer
	if err := markdownRenderer.Convert([]byte(src), &b); err != nil {
		return "<pre>" + htmlPolicy.Sanitize(src) + "</pre>"
	}
	return string(htmlPolicy.SanitizeBytes(b.Bytes()))
}
