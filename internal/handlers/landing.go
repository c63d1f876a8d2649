package handlers

import (
	"bytes"
	_ "embed"
	"fmt"
	"net/http"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

//go:embed content/landing.md
var landingMarkdown []byte

const landingHeader = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Gas Sensor Dashboard in Oman</title>
</head>
<body>
`

const landingFooter = `<footer><p>&copy; GABOARD</p></footer>
</body>
</html>
`

func renderLanding() ([]byte, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))

	var buf bytes.Buffer
	buf.WriteString(landingHeader)
	if err := md.Convert(landingMarkdown, &buf); err != nil {
		return nil, fmt.Errorf("failed to render landing page: %w", err)
	}
	buf.WriteString(landingFooter)

	return buf.Bytes(), nil
}

// Landing handles GET /
func (h *Handler) Landing(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(h.landing)
}
