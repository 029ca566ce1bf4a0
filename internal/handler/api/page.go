package api

import (
	"bytes"
	"context"
	"html/template"
	"net/http"
	"time"

	"IntelliMarket/internal/domain/models"
	"IntelliMarket/internal/usecase"
	xhttp "IntelliMarket/pkg/http"
	xlogger "IntelliMarket/pkg/logger"

	"github.com/labstack/echo/v4"
)

const healthTimeout = 5 * time.Second

// PageHandler serves the display page and the liveness probe.
type PageHandler struct {
	logger *xlogger.Logger
	ctrl   *usecase.Controller
	page   *template.Template
}

func NewPageHandler(logger *xlogger.Logger, ctrl *usecase.Controller) *PageHandler {
	return &PageHandler{
		logger: logger,
		ctrl:   ctrl,
		page:   template.Must(template.New("index").Parse(indexTpl)),
	}
}

func (h *PageHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Index)
	e.GET("/health", h.Health)
}

type pageData struct {
	Tabs      []models.AnalysisKind
	ActiveTab models.AnalysisKind
	Recent    []models.RecentEntry
	Result    template.HTML
	LastError string
}

// Index renders the page. ?tab= selects the panel; unknown kinds are ignored.
func (h *PageHandler) Index(c echo.Context) error {
	if tab := c.QueryParam("tab"); tab != "" {
		h.ctrl.State().SetActiveTab(models.AnalysisKind(tab))
	}
	h.ctrl.LoadRecent(c.Request().Context())
	snap := h.ctrl.State().Snapshot()

	data := pageData{
		Tabs:      []models.AnalysisKind{models.KindStock, models.KindComparison, models.KindResearch, models.KindQuery},
		ActiveTab: snap.ActiveTab,
		Recent:    snap.Recent,
		LastError: snap.LastError,
	}
	if view, ok := snap.Results[snap.ActiveTab]; ok {
		// rendered HTML is escaped by the renderer
		data.Result = template.HTML(view.HTML)
	}

	var buf bytes.Buffer
	if err := h.page.Execute(&buf, data); err != nil {
		h.logger.Error("render page error", xlogger.Error(err))
		return xhttp.ErrorResponse(c, http.StatusInternalServerError, xhttp.GenericErrorMessage)
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

// Health reports this server's status and whether the backend answers.
func (h *PageHandler) Health(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	out := map[string]string{"status": "ok"}
	bh, err := h.ctrl.Health(ctx)
	if err != nil {
		out["backend"] = "unavailable"
		out["error"] = xhttp.FormatMessage(err)
	} else {
		out["backend"] = bh.Status
	}
	return c.JSON(http.StatusOK, out)
}

const indexTpl = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>IntelliMarket</title>
<style>
body { font-family: -apple-system, "Segoe UI", Roboto, Helvetica, Arial, sans-serif; max-width: 960px; margin: 0 auto; padding: 20px; color: #2c3e50; }
.tabs button { padding: 6px 14px; border: 1px solid #ccc; background: #f7f7f7; cursor: pointer; }
.tabs button.active { background: #2c3e50; color: #fff; }
.panel { display: none; margin: 16px 0; }
.panel.active { display: block; }
#progress { height: 6px; background: #eee; margin: 8px 0; visibility: hidden; }
#progress div { height: 100%; width: 0; background: #3498db; transition: width .4s; }
.error { color: #c0392b; }
.analysis-section { border-top: 1px solid #eee; padding-top: 8px; }
table { border-collapse: collapse; }
th, td { border: 1px solid #ddd; padding: 4px 8px; }
#recent li { font-size: .9em; }
</style>
</head>
<body>
<h1>IntelliMarket</h1>
<div class="tabs">
{{range .Tabs}}<button data-tab="{{.}}" {{if eq . $.ActiveTab}}class="active"{{end}}>{{.}}</button>{{end}}
</div>

<form class="panel{{if eq .ActiveTab "stock"}} active{{end}}" data-kind="stock">
  <input name="symbol" placeholder="AAPL" autocomplete="off"> <span id="symbol-status"></span>
  <select name="type"><option value="quick">quick</option><option value="comprehensive">comprehensive</option></select>
  <button>Analyze</button>
</form>
<form class="panel{{if eq .ActiveTab "comparison"}} active{{end}}" data-kind="comparison">
  <input name="symbols" placeholder="AAPL, MSFT, GOOGL"> <button>Compare</button>
</form>
<form class="panel{{if eq .ActiveTab "research"}} active{{end}}" data-kind="research">
  <input name="topic" placeholder="AI semiconductor demand"> <button>Research</button>
</form>
<form class="panel{{if eq .ActiveTab "query"}} active{{end}}" data-kind="query">
  <input name="query" placeholder="Ask anything"> <button>Ask</button>
</form>

<div id="progress"><div></div></div>
<p id="error" class="error">{{.LastError}}</p>
<div id="result">{{.Result}}</div>

<h3>Recent</h3>
<ul id="recent">
{{range .Recent}}<li>{{.Kind}}: {{.Query}} <small>{{.Timestamp.Format "2006-01-02 15:04"}}</small></li>{{end}}
</ul>
<button id="clear-history">Clear history</button>

<script>
const $ = (s) => document.querySelector(s);
document.querySelectorAll('.tabs button').forEach(b => b.onclick = () => {
  document.querySelectorAll('.tabs button').forEach(x => x.classList.toggle('active', x === b));
  document.querySelectorAll('.panel').forEach(p => p.classList.toggle('active', p.dataset.kind === b.dataset.tab));
  history.replaceState(null, '', '?tab=' + b.dataset.tab);
});
let poll;
function watchProgress(on) {
  clearInterval(poll);
  const bar = $('#progress');
  if (!on) { setTimeout(() => bar.style.visibility = 'hidden', 1000); return; }
  bar.style.visibility = 'visible';
  poll = setInterval(async () => {
    const r = await fetch('/api/progress'); const j = await r.json();
    bar.firstElementChild.style.width = j.data.percent + '%';
  }, 500);
}
function showRecent(list) {
  $('#recent').innerHTML = '';
  (list || []).forEach(e => { const li = document.createElement('li'); li.textContent = e.kind + ': ' + e.query; $('#recent').appendChild(li); });
}
document.querySelectorAll('form.panel').forEach(f => f.onsubmit = async (ev) => {
  ev.preventDefault();
  $('#error').textContent = '';
  watchProgress(true);
  try {
    const r = await fetch('/api/analyze/' + f.dataset.kind, {method: 'POST', headers: {'Content-Type': 'application/json'}, body: JSON.stringify(Object.fromEntries(new FormData(f)))});
    const j = await r.json();
    if (!r.ok) { $('#error').textContent = (j.data && j.data.error) || j.message; return; }
    $('#result').innerHTML = j.data.html;
    showRecent(j.data.recent);
  } catch (e) {
    $('#error').textContent = 'An unexpected error occurred. Please try again.';
  } finally {
    $('#progress').firstElementChild.style.width = '100%';
    watchProgress(false);
  }
});
$('form[data-kind=stock] input[name=symbol]').oninput = async (ev) => {
  const s = ev.target.value.trim();
  if (!s) { $('#symbol-status').textContent = ''; return; }
  const r = await fetch('/api/validate/' + encodeURIComponent(s));
  if (r.status === 204) return;
  const j = await r.json();
  const v = j.data || {};
  $('#symbol-status').textContent = v.valid ? (v.name || 'valid') : (v.reason || (j.data && j.data.error) || 'invalid');
};
$('#clear-history').onclick = async () => { await fetch('/api/history', {method: 'DELETE'}); showRecent([]); };
</script>
</body>
</html>`
