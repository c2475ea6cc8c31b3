package health

import (
	"bytes"
	"html/template"
	"sort"
)

type dashboardRow struct {
	Name   string
	Status string
	PingMs interface{}
	OK     bool
}

type dashboardView struct {
	Title   string
	Result  CollectResult
	Deps    []dashboardRow
	LastReq map[string]interface{}
}

var dashboardTmpl = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <meta http-equiv="refresh" content="30">
  <style>
    :root { --primary: #0B2A4A; --accent: #C9A227; --bg: #F8F9FA; --muted: #64748b; }
    body { background: var(--bg); color: var(--primary); font-family: system-ui, sans-serif; margin: 0; padding: 40px 20px; }
    .container { max-width: 960px; margin: 0 auto; }
    h1 { font-size: 40px; font-weight: 900; letter-spacing: -1px; margin: 0 0 8px; }
    h1.issue { color: #B91C1C; }
    .subtext { color: var(--muted); font-weight: 700; margin-bottom: 30px; }
    .grid { display: grid; grid-template-columns: repeat(3, 1fr); gap: 20px; }
    .card { background: white; border-radius: 20px; padding: 28px; box-shadow: 0 20px 60px -20px rgba(11,42,74,0.15); }
    .label { text-transform: uppercase; font-size: 11px; font-weight: 900; letter-spacing: 2px; color: #94a3b8; margin-bottom: 18px; }
    .big { font-size: 36px; font-weight: 900; margin-bottom: 10px; }
    .row { display: flex; justify-content: space-between; padding: 6px 0; border-bottom: 1px solid rgba(0,0,0,0.04); font-size: 14px; font-weight: 700; }
    .row:last-child { border-bottom: none; }
    .ok { color: #047857; }
    .err { color: #DC2626; }
    footer { margin-top: 24px; font-family: monospace; font-size: 13px; color: var(--muted); display: flex; justify-content: space-between; }
    @media (max-width: 800px) { .grid { grid-template-columns: 1fr; } }
  </style>
</head>
<body>
  <div class="container">
    {{if eq .Result.Status "ok"}}<h1>All Systems Operational</h1>{{else}}<h1 class="issue">System Issues Detected</h1>{{end}}
    <p class="subtext">Guest credentialing API · <a href="/health/json">/health/json</a> · <a href="/health/errors">/health/errors</a></p>
    <div class="grid">
      <div class="card">
        <div class="label">Traffic</div>
        <div class="big">{{.Result.Traffic.TotalRequests}}</div>
        <div class="row"><span>Successful</span><span class="ok">{{.Result.Traffic.SuccessCount}}</span></div>
        <div class="row"><span>Failed</span><span class="err">{{.Result.Traffic.FailedCount}}</span></div>
        <div class="row"><span>Success Rate</span><span>{{.Result.Traffic.SuccessRate}}%</span></div>
        <div class="row"><span>Avg Latency</span><span>{{.Result.Traffic.AvgResponseTime}} ms</span></div>
      </div>
      <div class="card">
        <div class="label">Runtime</div>
        <div class="big">{{.Result.Runtime.UptimeSeconds}}s</div>
        <div class="row"><span>Heap Used</span><span>{{.Result.Runtime.Memory.HeapUsed}} MB</span></div>
        <div class="row"><span>Goroutines</span><span>{{.Result.Runtime.Goroutines}}</span></div>
        <div class="row"><span>Platform</span><span>{{.Result.Runtime.Platform}}</span></div>
        <div class="row"><span>Go</span><span>{{.Result.Runtime.GoVersion}}</span></div>
      </div>
      <div class="card">
        <div class="label">Dependencies</div>
        {{range .Deps}}<div class="row"><span>{{.Name}}</span><span class="{{if .OK}}ok{{else}}err{{end}}">{{.Status}}{{with .PingMs}} · {{.}} ms{{end}}</span></div>
        {{end}}
      </div>
    </div>
    <footer>
      {{with .LastReq}}<span>LAST {{index . "method"}}</span><span>{{index . "path"}}</span><span>{{index . "ip"}}</span>{{else}}<span>No requests recorded</span>{{end}}
    </footer>
  </div>
</body>
</html>
`))

// RenderDashboardHTML renders the status page for a health snapshot.
func RenderDashboardHTML(result CollectResult) (string, error) {
	view := dashboardView{Title: "GuestPass · API Status", Result: result}
	for name, d := range result.Dependencies {
		ping := d.PingMs
		if p, ok := ping.(*int64); ok {
			if p == nil {
				ping = nil
			} else {
				ping = *p
			}
		}
		view.Deps = append(view.Deps, dashboardRow{
			Name:   name,
			Status: d.Status,
			PingMs: ping,
			OK:     d.Status != StatusError && d.Status != StatusDisconnected,
		})
	}
	sort.Slice(view.Deps, func(i, j int) bool { return view.Deps[i].Name < view.Deps[j].Name })
	if m, ok := result.Traffic.LastRequest.(map[string]interface{}); ok {
		view.LastReq = m
	}
	var buf bytes.Buffer
	if err := dashboardTmpl.Execute(&buf, view); err != nil {
		return "", err
	}
	return buf.String(), nil
}
