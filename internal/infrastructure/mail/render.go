package mail

import (
	"bytes"
	"fmt"
	"html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var markdownConverter = goldmark.New(goldmark.WithExtensions(extension.GFM))

const htmlShell = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
body { font-family: 'Segoe UI', Arial, sans-serif; line-height: 1.7; color: #2c3e50; max-width: 900px; margin: 0 auto; padding: 20px; background-color: #f5f5f5; }
.container { background-color: white; padding: 40px; border-radius: 10px; }
h1 { border-bottom: 3px solid #e74c3c; padding-bottom: 12px; }
h2 { border-left: 5px solid #3498db; padding-left: 12px; }
a { color: #3498db; text-decoration: none; }
pre { background-color: #2c3e50; color: #ecf0f1; padding: 16px; border-radius: 6px; overflow-x: auto; }
code { background-color: #f8f9fa; padding: 2px 4px; border-radius: 3px; }
.footer { margin-top: 40px; padding-top: 16px; border-top: 1px solid #ddd; text-align: center; color: #7f8c8d; font-size: 0.9em; }
</style>
</head>
<body>
<div class="container">
%s
<div class="footer"><p>This research digest was generated automatically.</p></div>
</div>
</body>
</html>
`

// RenderHTML converts the report markdown into the styled email body.
func RenderHTML(markdown string) string {
	var buf bytes.Buffer
	if err := markdownConverter.Convert([]byte(markdown), &buf); err != nil {
		return fmt.Sprintf(htmlShell, "<pre>"+html.EscapeString(markdown)+"</pre>")
	}
	return fmt.Sprintf(htmlShell, buf.String())
}
