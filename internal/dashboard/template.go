package dashboard

import (
	"fmt"
	"html/template"
)

// indexHTML is the single page the dashboard serves. Kept inline so the
// binary ships self-contained.
const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>groundcheck</title>
<style>
body { font-family: -apple-system, sans-serif; margin: 2rem; background: #f6f7f9; }
h1 { font-size: 1.3rem; }
table { border-collapse: collapse; width: 100%; background: #fff; }
th, td { text-align: left; padding: .4rem .7rem; border-bottom: 1px solid #e2e5ea; font-size: .85rem; }
.pass { color: #1a7f37; font-weight: 600; }
.fail { color: #cf222e; font-weight: 600; }
.muted { color: #6e7781; }
</style>
</head>
<body>
<h1>groundcheck smoke runs</h1>
<table>
<tr><th>ID</th><th>When</th><th>Trigger</th><th>Model</th><th>Result</th><th>Scenarios</th></tr>
{{range .runs}}
<tr>
<td><a href="/api/runs/{{.ID}}">{{.ID}}</a></td>
<td class="muted">{{.StartedAt.Format "2006-01-02 15:04:05"}}</td>
<td>{{.Trigger}}</td>
<td>{{.Model}}</td>
<td class="{{if .Passed}}pass{{else}}fail{{end}}">{{if .Passed}}PASS{{else}}FAIL{{end}}</td>
<td>
{{range .Scenarios}}{{.Name}}: {{if .Skipped}}<span class="muted">skipped</span>{{else if .Passed}}<span class="pass">ok</span>{{else}}<span class="fail">{{.Classification}}</span>{{end}}<br>{{end}}
</td>
</tr>
{{else}}
<tr><td colspan="6" class="muted">No runs recorded yet.</td></tr>
{{end}}
</table>
</body>
</html>
`

func parseTemplates() (*template.Template, error) {
	tmpl, err := template.New("index.html").Parse(indexHTML)
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return tmpl, nil
}
