package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/powerstrip/internal/status"
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
	"onoff": func(on bool) string {
		if on {
			return "ON"
		}
		return "OFF"
	},
	"hms": func(secs uint64) string {
		h := secs / 3600
		m := (secs % 3600) / 60
		s := secs % 60
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	},
	"inc": func(i int) int { return i + 1 },
}).Parse(indexHTML))

func renderHTML(w io.Writer, v status.View) error {
	return indexTmpl.Execute(w, v)
}

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Power Strip</title>
<style>
body { font-family: monospace; max-width: 760px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Power Strip</h1>

<h2>Channels</h2>
<table>
<tr><th>#</th><th>Relay</th><th>V</th><th>A</th><th>W</th><th>Wh</th><th>Cost</th><th>On today</th><th>Limit</th><th>Timer</th></tr>
{{range $i, $ch := .Snapshot.Channels}}<tr>
<td>{{inc $i}}</td>
<td class="{{if $ch.Relay}}on{{else}}off{{end}}">{{onoff $ch.Relay}}</td>
<td>{{printf "%.2f" $ch.Voltage}}</td>
<td>{{printf "%.3f" $ch.Current}}</td>
<td>{{printf "%.1f" $ch.Power}}</td>
<td>{{printf "%.2f" $ch.EnergyWh}}</td>
<td>{{printf "%.2f" $ch.Cost}}</td>
<td>{{hms $ch.OnSecondsToday}}</td>
<td>{{if $ch.UsageLimitSeconds}}{{hms $ch.UsageLimitSeconds}}{{else}}none{{end}}</td>
<td>{{if $ch.TimerMinutes}}{{$ch.TimerMinutes}}m{{else}}off{{end}}</td>
</tr>{{end}}
</table>

<h2>Pricing</h2>
<table>
<tr><th>Unit price</th><td>{{printf "%.2f" .Snapshot.UnitPrice}} / kWh</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}disabled{{end}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Tick</th><td>{{.Config.TickMs}}ms</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
<tr><th>Store</th><td>{{.Config.DBPath}}</td></tr>
</table>

<p><a href="/state.json">state</a> · <a href="/notifs.json">notifications</a></p>
</body>
</html>
`
