package report

import (
	"html/template"
	"io"
	"sort"
	"time"

	"github.com/statglass/ibsrecon/pkg/recon"
)

// RuleSummary is the aggregated outcome of one rule.
type RuleSummary struct {
	RuleID      string
	Description string
	FailCount   int
}

// HTMLReport is the data rendered into the standalone HTML report.
type HTMLReport struct {
	Title       string
	Context     recon.Context
	GeneratedAt time.Time
	RuleCount   int
	Summaries   []RuleSummary
	Issues      []recon.Issue
	KeyColumns  []string
	Failures    []recon.FailureRecord
}

// Summarize aggregates failures into per-rule counts, ordered by rule ID.
func Summarize(failures []recon.FailureRecord) []RuleSummary {
	byRule := make(map[string]*RuleSummary)
	for _, f := range failures {
		s, ok := byRule[f.RuleID]
		if !ok {
			s = &RuleSummary{RuleID: f.RuleID, Description: f.Description}
			byRule[f.RuleID] = s
		}
		s.FailCount++
	}

	summaries := make([]RuleSummary, 0, len(byRule))
	for _, s := range byRule {
		summaries = append(summaries, *s)
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].RuleID < summaries[j].RuleID })
	return summaries
}

// WriteHTML renders a self-contained HTML report of a validation run.
func WriteHTML(w io.Writer, ctx recon.Context, ruleCount int, failures []recon.FailureRecord, issues []recon.Issue) error {
	rep := HTMLReport{
		Title:       "Reconciliation Report",
		Context:     ctx,
		GeneratedAt: time.Now().UTC(),
		RuleCount:   ruleCount,
		Summaries:   Summarize(failures),
		Issues:      issues,
		KeyColumns:  keyColumns(failures),
		Failures:    failures,
	}
	return htmlTemplate.Execute(w, rep)
}

var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"amount": formatAmount,
	"key": func(f recon.FailureRecord, col string) string {
		return f.Key[col]
	},
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 2rem; color: #1a1a2e; }
h1 { font-size: 1.4rem; }
h2 { font-size: 1.1rem; margin-top: 2rem; }
table { border-collapse: collapse; margin-top: 0.5rem; }
th, td { border: 1px solid #d0d0dd; padding: 0.3rem 0.6rem; text-align: left; font-size: 0.85rem; }
th { background: #f0f0f7; }
td.num { text-align: right; font-variant-numeric: tabular-nums; }
.meta { color: #555; font-size: 0.85rem; }
.pass { color: #1a7f37; }
.fail { color: #b62324; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p class="meta">
Reporting country {{.Context.ReportingCountry}},
currency {{.Context.CurrencyCode}},
quarter {{.Context.Quarter}}.
Generated {{.GeneratedAt.Format "2006-01-02 15:04:05 UTC"}}.
</p>
<p>
{{.RuleCount}} rules evaluated.
{{if .Failures}}<span class="fail">{{len .Failures}} failing combinations across {{len .Summaries}} rules.</span>
{{else}}<span class="pass">All rules passed.</span>{{end}}
</p>
{{if .Summaries}}
<h2>Failures by rule</h2>
<table>
<tr><th>Rule</th><th>Failing combinations</th><th>Description</th></tr>
{{range .Summaries}}
<tr><td>{{.RuleID}}</td><td class="num">{{.FailCount}}</td><td>{{.Description}}</td></tr>
{{end}}
</table>
<h2>Failure detail</h2>
<table>
<tr><th>Rule</th><th>LHS</th><th>Op</th><th>RHS</th><th>Diff</th>{{range .KeyColumns}}<th>{{.}}</th>{{end}}</tr>
{{range $f := .Failures}}
<tr>
<td>{{$f.RuleID}}</td>
<td class="num">{{amount $f.LHS}}</td>
<td>{{$f.Operator}}</td>
<td class="num">{{amount $f.RHS}}</td>
<td class="num">{{amount $f.Diff}}</td>
{{range $.KeyColumns}}<td>{{key $f .}}</td>{{end}}
</tr>
{{end}}
</table>
{{end}}
{{if .Issues}}
<h2>Rules that could not be evaluated</h2>
<table>
<tr><th>Rule</th><th>Problem</th></tr>
{{range .Issues}}
<tr><td>{{.RuleID}}</td><td>{{.Err}}</td></tr>
{{end}}
</table>
{{end}}
</body>
</html>
`))
