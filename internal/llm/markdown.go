package llm

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(
		html.WithHardWraps(),
		html.WithXHTML(),
	),
)

// outerFence matches a reply wrapped entirely in a ```markdown fence.
var outerFence = regexp.MustCompile("(?s)^```(?:markdown|md)?[ \t]*\n(.*?)\n?```$")

// StripOuterFence removes a code fence that wraps the whole reply.
func StripOuterFence(text string) string {
	t := strings.TrimSpace(text)
	if m := outerFence.FindStringSubmatch(t); m != nil {
		return m[1]
	}
	return t
}

// RenderMarkdown converts a model reply to HTML. Raw HTML in the reply is
// not passed through.
func RenderMarkdown(text string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(StripOuterFence(text)), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}
