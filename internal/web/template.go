package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sweeney/relay-switch/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		switch {
		case days > 0:
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		case h > 0:
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		case m > 0:
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"onOff": func(on bool) string {
		if on {
			return "ON"
		}
		return "OFF"
	},
	"minute": func(m int) string {
		if m < 0 {
			return "unknown"
		}
		return fmt.Sprintf("%02d:%02d", m/60, m%60)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Relay Switch</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.ON { color: green; font-weight: bold; }
.OFF { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Relay Switch <small>{{.Detail.ID}}</small></h1>

<h2>Lights</h2>
<table>
<tr><th>Value</th><td id="value">{{.Detail.Value}}</td></tr>
<tr><th>Twilight</th><td class="{{onOff .Detail.Twilight}}">{{onOff .Detail.Twilight}}</td></tr>
<tr><th>Cloudiness</th><td class="{{onOff .Detail.Cloudiness}}">{{onOff .Detail.Cloudiness}}</td></tr>
<tr><th>Schedule</th><td>{{if .Detail.Smart}}{{.Detail.Smart}}{{else}}none{{end}}</td></tr>
</table>

<h2>Sun</h2>
<table>
<tr><th>Location</th><td>{{if .Detail.Location}}{{.Detail.Location}}{{else}}not set{{end}}</td></tr>
<tr><th>Next sunset</th><td>{{minute .Detail.NextSunset}}</td></tr>
<tr><th>Next sunrise</th><td>{{minute .Detail.NextSunrise}}</td></tr>
<tr><th>Dusk delay</th><td>{{.Detail.DuskDelay}} min</td></tr>
<tr><th>Dawn delay</th><td>{{.Detail.DawnDelay}} min</td></tr>
<tr><th>Sensors</th><td>{{if .Detail.Sensors}}yes{{else}}no{{end}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
<tr><th>Offline mode</th><td>{{if .Detail.Offline}}yes{{else}}no{{end}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Clock</th><td>{{if .Detail.RTC}}running{{else}}not set{{end}}</td></tr>
<tr><th>Offset</th><td>{{.Detail.Offset}}s{{if .Detail.DST}} + DST{{end}}</td></tr>
<tr><th>Uprisings</th><td>{{.Detail.Uprisings}}</td></tr>
<tr><th>Activity log</th><td>{{if .LogEnabled}}on{{else}}off{{end}}</td></tr>
<tr><th>Version</th><td>{{.Detail.Version}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> · <a href="/log">Log</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	if err := indexTmpl.Execute(w, data); err != nil {
		log.Warn().Err(err).Msg("Render status page failed")
	}
}
