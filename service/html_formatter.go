package service

import (
	"html/template"
	"io"
	"time"

	"github.com/thecodereport/tcdr/domain"
	"github.com/thecodereport/tcdr/internal/constants"
	"github.com/thecodereport/tcdr/internal/version"
)

// HTMLOptions configures the dashboard page
type HTMLOptions struct {
	// Live is set when the page is served by tcdr serve; it enables the
	// Run All button and the server-side CSV link.
	Live        bool
	GeneratedAt time.Time
}

// HTMLData represents the data for HTML template
type HTMLData struct {
	GeneratedAt string
	Version     string
	Content     *domain.DashboardContent
	Live        bool
	PageSize    int
	CSVHeader   []string
}

// WriteHTML writes the dashboard as a standalone HTML page
func (f *OutputFormatterImpl) WriteHTML(content *domain.DashboardContent, writer io.Writer) error {
	generated := f.html.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}

	data := HTMLData{
		GeneratedAt: generated.Format("2006-01-02 15:04:05"),
		Version:     version.Version,
		Content:     content,
		Live:        f.html.Live,
		PageSize:    constants.DefaultPageSize,
		CSVHeader:   CSVHeader,
	}

	funcMap := template.FuncMap{
		"count": optionalCount,
		"pctClass": func(p domain.Percent) string {
			switch {
			case !p.Valid:
				return "pct-na"
			case p.Value >= 80:
				return "pct-good"
			case p.Value >= 50:
				return "pct-fair"
			default:
				return "pct-poor"
			}
		},
		"barWidth": func(p domain.Percent) float64 {
			if !p.Valid {
				return 0
			}
			v := p.Value
			if v < 0 {
				v = 0
			}
			if v > 100 {
				v = 100
			}
			return v
		},
		"deref": func(v *float64) float64 {
			if v == nil {
				return 0
			}
			return *v
		},
		"belowThreshold": func(p domain.Percent, th *domain.Thresholds) bool {
			return th != nil && th.Total != nil && p.Valid && p.Value < *th.Total
		},
	}

	tmpl := template.Must(template.New("dashboard").Funcs(funcMap).Parse(htmlTemplate))
	if err := tmpl.Execute(writer, data); err != nil {
		return domain.NewOutputError("failed to render HTML dashboard", err)
	}
	return nil
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Content.RepoName}} - tcdr coverage</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
            line-height: 1.6;
            color: #333;
            background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
            min-height: 100vh;
        }
        .container { max-width: 1200px; margin: 0 auto; padding: 20px; }
        .header {
            background: white;
            border-radius: 10px;
            padding: 30px;
            margin-bottom: 20px;
            box-shadow: 0 10px 30px rgba(0,0,0,0.1);
            display: flex;
            justify-content: space-between;
            align-items: center;
        }
        .header h1 { color: #667eea; margin-bottom: 10px; }
        .header .subtitle { color: #666; font-size: 14px; }
        .run-button {
            padding: 10px 20px;
            border: none;
            border-radius: 50px;
            background: #667eea;
            color: white;
            font-size: 16px;
            cursor: pointer;
        }
        .run-button:disabled { background: #aaa; cursor: wait; }
        .banner { display: none; padding: 12px 20px; border-radius: 8px; margin-bottom: 20px; color: white; }
        .banner.success { display: block; background: #4caf50; }
        .banner.error { display: block; background: #f44336; }

        .tabs { background: white; border-radius: 10px; overflow: hidden; box-shadow: 0 10px 30px rgba(0,0,0,0.1); }
        .tab-buttons { display: flex; background: #f5f5f5; }
        .tab-button {
            flex: 1;
            padding: 15px;
            border: none;
            background: transparent;
            cursor: pointer;
            font-size: 16px;
            transition: all 0.3s;
        }
        .tab-button.active { background: white; color: #667eea; font-weight: bold; }
        .tab-content { display: none; padding: 30px; }
        .tab-content.active { display: block; }

        .metric-grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(200px, 1fr));
            gap: 20px;
            margin: 20px 0;
        }
        .metric-card { background: #f8f9fa; padding: 20px; border-radius: 8px; text-align: center; }
        .metric-value { font-size: 32px; font-weight: bold; color: #667eea; }
        .metric-label { color: #666; margin-top: 5px; }
        .metric-detail { color: #999; font-size: 12px; }
        .metric-card.below { border: 2px solid #f44336; }

        .bar-container { width: 100%; height: 12px; background: #e0e0e0; border-radius: 6px; overflow: hidden; margin-top: 8px; }
        .bar-fill { height: 100%; border-radius: 6px; }
        .pct-good { color: #4caf50; }
        .pct-fair { color: #ff9800; }
        .pct-poor { color: #f44336; }
        .pct-na { color: #999; }
        .bar-fill.pct-good { background: linear-gradient(90deg, #4caf50, #66bb6a); }
        .bar-fill.pct-fair { background: linear-gradient(90deg, #ff9800, #ffa726); }
        .bar-fill.pct-poor { background: linear-gradient(90deg, #f44336, #ef5350); }

        .table { width: 100%; border-collapse: collapse; margin: 20px 0; font-size: 14px; }
        .table th, .table td { padding: 8px 12px; text-align: left; border-bottom: 1px solid #ddd; }
        .table th { background: #f8f9fa; font-weight: 600; cursor: pointer; user-select: none; }
        .table td.num { text-align: right; font-variant-numeric: tabular-nums; }
        .toolbar { display: flex; gap: 12px; align-items: center; flex-wrap: wrap; }
        .toolbar input { flex: 1; min-width: 200px; padding: 8px 12px; border: 1px solid #ddd; border-radius: 6px; }
        .toolbar button, .toolbar a {
            padding: 8px 14px; border: 1px solid #667eea; border-radius: 6px;
            background: white; color: #667eea; cursor: pointer; text-decoration: none; font-size: 14px;
        }
        .pager { display: flex; gap: 12px; align-items: center; justify-content: flex-end; }
        .kind { color: #999; font-size: 12px; margin-left: 6px; }
        .empty { color: #666; padding: 20px 0; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <div>
                <h1>{{.Content.RepoName}}</h1>
                <p class="subtitle">
                    {{if .Content.Branch}}Branch: {{.Content.Branch}} | {{end}}{{if .Content.Status}}Status: {{.Content.Status}} | {{end}}Generated: {{.GeneratedAt}} | Version: {{.Version}}
                </p>
            </div>
            {{if and .Live .Content.AllowRunAll}}
            <button id="run-all" class="run-button" onclick="runAll(this)">Run All</button>
            {{end}}
        </div>

        <div id="run-banner" class="banner"></div>

        <div class="tabs">
            <div class="tab-buttons">
                <button class="tab-button active" onclick="showTab('overview', this)">Overview</button>
                <button class="tab-button" onclick="showTab('coverage', this)">Coverage</button>
                <button class="tab-button" onclick="showTab('hotspots', this)">Hotspots</button>
            </div>

            <div id="overview" class="tab-content active">
                <h2>Overview</h2>
                {{with .Content.Overview.Summary}}{{if .Parser}}
                <p class="subtitle">Parser: {{.Parser}} | Assemblies: {{count .Assemblies}} | Files: {{count .Files}} | Classes: {{count .Classes}}</p>
                {{end}}{{end}}
                {{$th := .Content.Thresholds}}
                {{with .Content.Overview.Totals}}
                <div class="metric-grid">
                    <div class="metric-card{{if belowThreshold .Lines.Pct $th}} below{{end}}">
                        <div class="metric-value {{pctClass .Lines.Pct}}">{{.Lines.Pct}}</div>
                        <div class="metric-label">Lines</div>
                        <div class="metric-detail">{{count .Lines.Covered}} / {{count .Lines.Coverable}} covered</div>
                        <div class="bar-container"><div class="bar-fill {{pctClass .Lines.Pct}}" style="width: {{barWidth .Lines.Pct}}%"></div></div>
                    </div>
                    <div class="metric-card">
                        <div class="metric-value {{pctClass .Branches.Pct}}">{{.Branches.Pct}}</div>
                        <div class="metric-label">Branches</div>
                        <div class="metric-detail">{{count .Branches.Covered}} / {{count .Branches.Total}} covered</div>
                        <div class="bar-container"><div class="bar-fill {{pctClass .Branches.Pct}}" style="width: {{barWidth .Branches.Pct}}%"></div></div>
                    </div>
                    <div class="metric-card">
                        <div class="metric-value {{pctClass .Methods.Pct}}">{{.Methods.Pct}}</div>
                        <div class="metric-label">Methods</div>
                        <div class="metric-detail">{{count .Methods.Covered}} / {{count .Methods.Total}} covered</div>
                        <div class="bar-container"><div class="bar-fill {{pctClass .Methods.Pct}}" style="width: {{barWidth .Methods.Pct}}%"></div></div>
                    </div>
                    <div class="metric-card">
                        <div class="metric-value {{pctClass .Methods.FullPct}}">{{.Methods.FullPct}}</div>
                        <div class="metric-label">Fully covered methods</div>
                        <div class="metric-detail">{{count .Methods.FullCovered}} / {{count .Methods.Total}}</div>
                        <div class="bar-container"><div class="bar-fill {{pctClass .Methods.FullPct}}" style="width: {{barWidth .Methods.FullPct}}%"></div></div>
                    </div>
                </div>
                {{end}}
                {{if and $th $th.Total}}<p class="subtitle">Line coverage threshold: {{printf "%.1f" (deref $th.Total)}}%</p>{{end}}
                {{if .Content.Overview.History}}
                <h3 style="margin-top: 20px;">History</h3>
                <table class="table">
                    <thead><tr><th>At</th><th>Lines</th><th>Branches</th><th>Methods</th><th>Fully covered</th></tr></thead>
                    <tbody>
                    {{range .Content.Overview.History}}
                        <tr><td>{{.At}}</td><td class="num">{{.LinePct}}</td><td class="num">{{.BranchPct}}</td><td class="num">{{.MethodPct}}</td><td class="num">{{.FullMethodPct}}</td></tr>
                    {{end}}
                    </tbody>
                </table>
                {{end}}
            </div>

            <div id="coverage" class="tab-content">
                <h2>Coverage</h2>
                <div class="toolbar">
                    <input id="filter" type="search" placeholder="Filter by name or path" oninput="explorer.setFilter(this.value)">
                    <button onclick="explorer.downloadCSV()">Download CSV</button>
                    {{if .Live}}<a id="csv-link" href="/coverage.csv">Server CSV</a>{{end}}
                </div>
                <table class="table">
                    <thead>
                        <tr>
                            <th onclick="explorer.sortBy('name')">Name</th>
                            <th onclick="explorer.sortBy('coveredLines')">Covered</th>
                            <th onclick="explorer.sortBy('coverableLines')">Coverable</th>
                            <th onclick="explorer.sortBy('linePct')">Lines</th>
                            <th onclick="explorer.sortBy('branchPct')">Branches</th>
                            <th onclick="explorer.sortBy('methodPct')">Methods</th>
                            <th onclick="explorer.sortBy('fullMethodPct')">Fully covered</th>
                        </tr>
                    </thead>
                    <tbody id="explorer-body"></tbody>
                </table>
                <div class="pager">
                    <button onclick="explorer.prev()">Previous</button>
                    <span id="page-info"></span>
                    <button onclick="explorer.next()">Next</button>
                </div>
            </div>

            <div id="hotspots" class="tab-content">
                <h2>Hotspots</h2>
                {{if .Content.Overview.Hotspots}}
                <table class="table">
                    <thead><tr><th>Score</th><th>Function</th><th>File</th><th>Uncovered lines</th></tr></thead>
                    <tbody>
                    {{range .Content.Overview.Hotspots}}
                        <tr><td class="num">{{printf "%.1f" .Score}}</td><td>{{.Function}}</td><td>{{.File}}</td><td>{{.Lines}}</td></tr>
                    {{end}}
                    </tbody>
                </table>
                {{else}}
                <p class="empty">No hotspots. Every method is fully covered.</p>
                {{end}}
            </div>
        </div>
    </div>

    <script>
        const rows = {{.Content.CoverageRows}} || [];
        const csvHeader = {{.CSVHeader}};
        const pageSize = {{.PageSize}};

        function showTab(tabName, btn) {
            document.querySelectorAll('.tab-content').forEach(tab => tab.classList.remove('active'));
            document.querySelectorAll('.tab-button').forEach(b => b.classList.remove('active'));
            document.getElementById(tabName).classList.add('active');
            btn.classList.add('active');
        }

        function fmtPct(v) {
            return (v === null || v === undefined || !isFinite(v)) ? '—' : Math.max(0, Math.min(100, v)).toFixed(1) + '%';
        }

        const fields = {
            coveredLines: r => r.lines.covered,
            coverableLines: r => r.lines.coverable,
            linePct: r => r.lines.pct,
            branchPct: r => r.branches.pct,
            methodPct: r => r.methods.pct,
            fullMethodPct: r => r.methods.fullPct,
        };

        function filterRows(list, q) {
            const out = [];
            for (const r of list) {
                const kids = r.children ? filterRows(r.children, q) : [];
                const hit = r.name.toLowerCase().includes(q) || (r.path || '').toLowerCase().includes(q);
                if (hit || kids.length) out.push(Object.assign({}, r, { children: kids }));
            }
            return out;
        }

        function flatten(list, depth, out) {
            for (const r of list) {
                out.push({ row: r, depth: depth });
                if (r.children && r.children.length) flatten(r.children, depth + 1, out);
            }
            return out;
        }

        function cmp(a, b, key) {
            if (key === 'name') return a.name.localeCompare(b.name, undefined, { sensitivity: 'base' });
            const get = fields[key];
            let x = get ? get(a) : null, y = get ? get(b) : null;
            x = (x === null || !isFinite(x)) ? -Infinity : x;
            y = (y === null || !isFinite(y)) ? -Infinity : y;
            return x < y ? -1 : x > y ? 1 : 0;
        }

        const explorer = {
            query: '', key: null, desc: false, page: 1, view: [],
            rebuild() {
                const q = this.query.trim().toLowerCase();
                let flat = flatten(q ? filterRows(rows, q) : rows, 0, []);
                if (this.key) {
                    const k = this.key, d = this.desc;
                    flat = flat.map((f, i) => [f, i]).sort((a, b) => (d ? -1 : 1) * cmp(a[0].row, b[0].row, k) || a[1] - b[1]).map(p => p[0]);
                }
                this.view = flat;
                this.render();
            },
            render() {
                const pages = Math.max(1, Math.ceil(this.view.length / pageSize));
                this.page = Math.min(Math.max(1, this.page), pages);
                const body = document.getElementById('explorer-body');
                body.innerHTML = '';
                for (const f of this.view.slice((this.page - 1) * pageSize, this.page * pageSize)) {
                    const r = f.row, tr = document.createElement('tr');
                    const name = document.createElement('td');
                    name.style.paddingLeft = (12 + f.depth * 18) + 'px';
                    name.textContent = r.name;
                    if (r.path) name.title = r.path;
                    const kind = document.createElement('span');
                    kind.className = 'kind';
                    kind.textContent = r.kind;
                    name.appendChild(kind);
                    tr.appendChild(name);
                    for (const v of [r.lines.covered, r.lines.coverable, fmtPct(r.lines.pct), fmtPct(r.branches.pct), fmtPct(r.methods.pct), fmtPct(r.methods.fullPct)]) {
                        const td = document.createElement('td');
                        td.className = 'num';
                        td.textContent = v;
                        tr.appendChild(td);
                    }
                    body.appendChild(tr);
                }
                document.getElementById('page-info').textContent = 'Page ' + this.page + ' of ' + pages + ' (' + this.view.length + ' rows)';
                const link = document.getElementById('csv-link');
                if (link) link.href = '/coverage.csv' + (this.query ? '?q=' + encodeURIComponent(this.query) : '');
            },
            setFilter(q) { this.query = q; this.page = 1; this.rebuild(); },
            sortBy(key) {
                if (this.key === key) { this.desc = !this.desc; } else { this.key = key; this.desc = key !== 'name'; }
                this.rebuild();
            },
            prev() { this.page--; this.render(); },
            next() { this.page++; this.render(); },
            downloadCSV() {
                const esc = v => { const s = (v === null || v === undefined) ? '' : String(v); return /[",\n]/.test(s) ? '"' + s.replace(/"/g, '""') + '"' : s; };
                const lines = [csvHeader.join(',')];
                for (const f of this.view) {
                    const r = f.row;
                    lines.push([f.depth, r.kind, r.name, r.path || '',
                        r.lines.covered, r.lines.uncovered, r.lines.coverable, r.lines.total, r.lines.pct,
                        r.branches.covered, r.branches.total, r.branches.pct,
                        r.methods.covered, r.methods.total, r.methods.pct,
                        r.methods.fullCovered, r.methods.fullPct].map(esc).join(','));
                }
                const blob = new Blob([lines.join('\n') + '\n'], { type: 'text/csv' });
                const a = document.createElement('a');
                a.href = URL.createObjectURL(blob);
                a.download = 'coverage.csv';
                a.click();
                URL.revokeObjectURL(a.href);
            },
        };

        async function runAll(btn) {
            const banner = document.getElementById('run-banner');
            btn.disabled = true;
            btn.textContent = 'Running...';
            banner.className = 'banner';
            try {
                const res = await fetch('/run', { method: 'POST' });
                const body = await res.json();
                let msg;
                if (body.ok) {
                    msg = typeof body.duration_seconds === 'number' ? 'All tests passed in ' + body.duration_seconds.toFixed(2) + 's.' : 'All tests passed.';
                } else if (body.error) {
                    msg = body.error;
                } else {
                    msg = typeof body.exit_code === 'number' ? 'dotnet test failed (exit code ' + body.exit_code + ').' : 'dotnet test failed.';
                }
                banner.className = 'banner ' + (body.ok ? 'success' : 'error');
                banner.textContent = msg;
                if (body.ok) setTimeout(() => location.reload(), 1500);
            } catch (e) {
                banner.className = 'banner error';
                banner.textContent = e.message || 'Failed to run dotnet tests.';
            } finally {
                btn.disabled = false;
                btn.textContent = 'Run All';
            }
        }

        explorer.rebuild();
    </script>
</body>
</html>
`
