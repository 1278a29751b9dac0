package report

// htmlTemplate is the main HTML template for the report
const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}} - Batch Report</title>
    <style>
        :root {
            --bg-primary: #ffffff;
            --bg-secondary: #f8fafc;
            --text-primary: #1e293b;
            --text-secondary: #64748b;
            --border-color: #e2e8f0;
            --accent-primary: #3b82f6;
            --accent-success: #22c55e;
            --accent-warning: #f59e0b;
            --accent-error: #ef4444;
            --shadow: 0 1px 3px rgba(0, 0, 0, 0.1);
        }

        * { margin: 0; padding: 0; box-sizing: border-box; }

        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
            background-color: var(--bg-secondary);
            color: var(--text-primary);
            line-height: 1.6;
        }

        .container { max-width: 1400px; margin: 0 auto; padding: 2rem; }
        header { display: flex; justify-content: space-between; align-items: baseline; margin-bottom: 1.5rem; }
        .muted { color: var(--text-secondary); font-size: 0.875rem; }
        .badge { padding: 0.25rem 0.75rem; border-radius: 9999px; font-weight: 600; color: #fff; }
        .badge.passed { background: var(--accent-success); }
        .badge.failed { background: var(--accent-error); }

        .cards { display: grid; grid-template-columns: repeat(auto-fit, minmax(160px, 1fr)); gap: 1rem; margin-bottom: 1.5rem; }
        .card { background: var(--bg-primary); border: 1px solid var(--border-color); border-radius: 0.5rem; padding: 1rem; box-shadow: var(--shadow); }
        .card .value { font-size: 1.5rem; font-weight: 700; }

        table { width: 100%; border-collapse: collapse; background: var(--bg-primary); box-shadow: var(--shadow); margin-bottom: 1.5rem; }
        th, td { text-align: left; padding: 0.5rem 0.75rem; border-bottom: 1px solid var(--border-color); vertical-align: top; }
        th { font-size: 0.75rem; text-transform: uppercase; color: var(--text-secondary); }
        .ok { color: var(--accent-success); }
        .redirect { color: var(--accent-warning); }
        .error, .failed { color: var(--accent-error); }
        pre { white-space: pre-wrap; word-break: break-all; font-size: 0.8rem; max-height: 16rem; overflow: auto; }
        ul.problems { list-style: none; color: var(--accent-error); }
    </style>
</head>
<body>
<div class="container">
    <header>
        <div>
            <h1>{{.Title}}</h1>
            <div class="muted">Generated {{.Generated.Format "2006-01-02 15:04:05 MST"}}</div>
        </div>
        {{if .Passed}}<span class="badge passed">PASSED</span>{{else}}<span class="badge failed">FAILED</span>{{end}}
    </header>

    <section class="cards">
        <div class="card"><div class="muted">Requests</div><div class="value">{{formatNumber .Summary.Total}}</div></div>
        <div class="card"><div class="muted">Success rate</div><div class="value">{{printf "%.1f" (successRate .Summary)}}%</div></div>
        <div class="card"><div class="muted">HTTP errors</div><div class="value">{{formatNumber .Summary.HTTPErrors}}</div></div>
        <div class="card"><div class="muted">Failed</div><div class="value">{{formatNumber .Summary.Failed}}</div></div>
        <div class="card"><div class="muted">p50 / p99</div><div class="value">{{formatLatency .Summary.Latency.P50}} / {{formatLatency .Summary.Latency.P99}}</div></div>
        <div class="card"><div class="muted">Received</div><div class="value">{{formatBytes .Summary.Bytes}}</div></div>
    </section>

    <table>
        <thead>
            <tr><th>Request</th><th>Status</th><th>Time</th><th>Size</th><th>Checks</th><th>Body</th></tr>
        </thead>
        <tbody>
        {{range .Rows}}
            <tr>
                <td><strong>{{.Name}}</strong><div class="muted">{{.Method}} {{.URL}}</div></td>
                <td class="{{statusClass .}}">{{if .Error}}{{.ErrorKind}}: {{.Error}}{{else}}{{.Status}} {{.StatusText}}{{end}}</td>
                <td>{{formatLatency .Elapsed}}</td>
                <td>{{.Bytes}} B</td>
                <td>
                    {{range .Extracted}}<div>{{.Name}} = <code>{{.Value}}</code></div>{{end}}
                    {{if .Problems}}<ul class="problems">{{range .Problems}}<li>{{.}}</li>{{end}}</ul>{{else if .Passed}}<span class="ok">✓</span>{{end}}
                </td>
                <td><pre>{{.Body}}{{if .Truncated}}…{{end}}</pre></td>
            </tr>
        {{end}}
        </tbody>
    </table>

    {{if .Variables}}
    <table>
        <thead><tr><th>Variable</th><th>Value</th></tr></thead>
        <tbody>
        {{range .Variables}}<tr><td>{{.Name}}</td><td><code>{{.Value}}</code></td></tr>{{end}}
        </tbody>
    </table>
    {{end}}
</div>
</body>
</html>
`
