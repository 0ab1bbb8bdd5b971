package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/mfeltham/screenduty/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"pct": func(part, total int) int {
		if total <= 0 {
			return 0
		}
		return part * 100 / total
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="5">
<title>Screen Duty</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.dimmed { color: orange; font-weight: bold; }
.connected { color: green; }
.disconnected { color: red; }
.bar { background: #eee; height: 10px; width: 100%; }
.bar > div { background: green; height: 10px; }
</style>
</head>
<body>
<h1>Screen Duty</h1>

<h2>State</h2>
<table>
<tr><th>Phase</th><td class="{{if .State.Dimmed}}dimmed{{else if .State.ScreenOn}}on{{else}}off{{end}}">{{.State.Phase}}</td></tr>
<tr><th>Screen</th><td class="{{if .State.ScreenOn}}on{{else}}off{{end}}">{{if .State.ScreenOn}}ON{{else}}OFF{{end}}</td></tr>
<tr><th>Presence</th><td>{{if .State.Presence}}detected{{else}}absent{{end}}</td></tr>
{{if .State.AlwaysOn}}<tr><th>Always-on left</th><td>{{.State.AlwaysOnLeft}}s
<div class="bar"><div style="width: {{pct .State.AlwaysOnLeft .State.AlwaysOnTotal}}%"></div></div></td></tr>
{{else}}<tr><th>Countdown</th><td>{{.State.Counter}}s
<div class="bar"><div style="width: {{pct .State.Counter .Config.CounterTimeout}}%"></div></div></td></tr>
{{end}}{{if .State.Ignore}}<tr><th>Window</th><td>ignore</td></tr>{{end}}
</table>

<h2>Connectivity</h2>
<table>
{{if .Config.Broker}}<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Config.OccupancyTopic}}<tr><th>Occupancy topic</th><td>{{.Config.OccupancyTopic}}</td></tr>{{end}}
{{else}}<tr><th>MQTT</th><td>not configured</td></tr>{{end}}
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Screen ON</th><td>{{.Counts.SwitchOn}}</td></tr>
<tr><th>Screen OFF</th><td>{{.Counts.SwitchOff}}</td></tr>
<tr><th>Sensor faults</th><td>{{.Counts.SensorFaults}}</td></tr>
<tr><th>Wake requests</th><td>{{.Counts.Wakes}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Mode</th><td>{{.Config.Mode}}</td></tr>
<tr><th>Counter timeout</th><td>{{.Config.CounterTimeout}}s</td></tr>
<tr><th>Auto dimmer</th><td>{{if .Config.AutoDimmer}}{{.Config.AutoDimmerTimeout}}s{{else}}disabled{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> &middot; <a href="/metrics">metrics</a></p>
<form method="POST" action="/wake"><button type="submit">Wake screen</button></form>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
