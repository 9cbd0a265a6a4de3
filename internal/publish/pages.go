package publish

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

// Pages link to siblings relatively so a publication can be browsed on any
// backend, including a local directory.

var viewerTemplate = template.Must(template.New("viewer").Parse(`<!doctype html>
<html>
  <head>
    <meta charset="utf-8">
    <title>{{.Name}} | {{.Case}}</title>
    <style>
      body { font-family: sans-serif; margin: 1.5em; }
      pre { font-family: monospace; font-size: 13px; border: 1px solid #ddd; padding: 0.5em; overflow-x: auto; }
      pre span { display: block; white-space: pre; }
      .add { background: #e6ffed; }
      .del { background: #ffeef0; }
      .hunk { color: #6f42c1; background: #f1f8ff; }
      .meta { color: #586069; font-weight: bold; }
    </style>
  </head>
  <body>
    <p><a href="index.html">index</a> | <a href="{{.Name}}">download</a>{{with .Stats}} | <span class="add">+{{.Added}}</span> <span class="del">-{{.Deleted}}</span>{{end}}</p>
    <h3>{{.Name}}</h3>
    <pre>{{range .Lines}}<span{{with .Class}} class="{{.}}"{{end}}>{{.Text}}</span>{{end}}</pre>
  </body>
</html>
`))

var indexTemplate = template.Must(template.New("index").Parse(`<!doctype html>
<html>
  <head>
    <meta charset="utf-8">
    <title>Regression Results | {{.Case}}</title>
    <style>
      body { font-family: sans-serif; margin: 1.5em; }
      table { border-collapse: collapse; }
      th, td { text-align: left; padding: 4px 12px; border-bottom: 1px solid #ddd; }
      tr:hover { background: #f5f5f5; }
      .add { color: #22863a; }
      .del { color: #cb2431; }
    </style>
  </head>
  <body>
    <h3>{{.Case}}</h3>
    <p>{{.BaseSHA}} &rarr; {{.ModSHA}} on {{.DeviceID}}</p>
    <table>
      <tr><th>filename</th><th>size</th><th>changes</th><th></th><th></th></tr>
{{- range .Files}}
      <tr><td>{{.Name}}</td><td>{{.Bytes}}</td><td>{{with .Stats}}<span class="add">+{{.Added}}</span> <span class="del">-{{.Deleted}}</span>{{end}}</td><td><a href="{{.Name}}">download</a></td><td><a href="{{.Name}}.html">view</a></td></tr>
{{- end}}
    </table>
  </body>
</html>
`))

type viewerLine struct {
	Text  string
	Class string
}

type viewerData struct {
	Name  string
	Case  string
	Stats *DiffStats
	Lines []viewerLine
}

type indexData struct {
	Case     string
	BaseSHA  string
	ModSHA   string
	DeviceID string
	Files    []FileResult
}

// renderViewer renders the HTML page for one artifact. Diff artifacts get
// per-line highlighting.
func renderViewer(layout Layout, name string, body []byte, stats *DiffStats) ([]byte, error) {
	data := viewerData{Name: name, Case: layout.Case, Stats: stats}
	highlight := isUnifiedDiff(name)
	for _, line := range strings.Split(strings.TrimSuffix(string(body), "\n"), "\n") {
		vl := viewerLine{Text: line}
		if highlight {
			vl.Class = diffLineClass(line)
		}
		data.Lines = append(data.Lines, vl)
	}

	var buf bytes.Buffer
	if err := viewerTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render viewer for %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// renderIndex renders the listing of every published artifact.
func renderIndex(layout Layout, files []FileResult) ([]byte, error) {
	data := indexData{
		Case:     layout.Case,
		BaseSHA:  layout.BaseSHA,
		ModSHA:   layout.ModSHA,
		DeviceID: layout.DeviceID,
		Files:    files,
	}
	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render index: %w", err)
	}
	return buf.Bytes(), nil
}

func diffLineClass(line string) string {
	switch {
	case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		return "meta"
	case strings.HasPrefix(line, "@@"):
		return "hunk"
	case strings.HasPrefix(line, "+"):
		return "add"
	case strings.HasPrefix(line, "-"):
		return "del"
	default:
		return ""
	}
}
