package server

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/emrgen/linktrace/internal/meta"
	"github.com/emrgen/linktrace/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// interstitialData feeds the redirect/tracker page template.
type interstitialData struct {
	Preview            meta.Preview
	TrackURL           string
	Destination        string
	HasDestination     bool
	NavigateAfterTrack bool
}

// interstitialPage performs the client-side handshake: a bounded
// geolocation attempt, exactly one track request on any outcome, and
// exactly one navigation. The "navigated" guard plus the cancelable
// safety-net timer keep the success path, the failure path and the timer
// from double-firing the redirect.
var interstitialPage = template.Must(template.New("interstitial").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8"/>
<meta name="viewport" content="width=device-width,initial-scale=1"/>
<title>{{.Preview.Title}}</title>
<meta property="og:title" content="{{.Preview.Title}}"/>
<meta property="og:description" content="{{.Preview.Description}}"/>
{{if .Preview.Image}}<meta property="og:image" content="{{.Preview.Image}}"/>{{end}}
<style>
body{font-family:system-ui,sans-serif;margin:0;display:flex;min-height:100vh;align-items:center;justify-content:center;background:#fafafa;color:#333}
.box{text-align:center}
.spinner{margin:0 auto 1rem;width:32px;height:32px;border:3px solid #ddd;border-top-color:#666;border-radius:50%;animation:spin .8s linear infinite}
@keyframes spin{to{transform:rotate(360deg)}}
</style>
</head>
<body>
<div class="box">
{{if .HasDestination}}
  <div class="spinner"></div>
  <p>Loading&hellip;</p>
{{else}}
  <h2>{{.Preview.Title}}</h2>
  <p>This page has been viewed.</p>
{{end}}
</div>
<script>
(function () {
  var navigated = false;
  var safetyTimer = null;

  function navigate() {
    if (navigated) return;
    navigated = true;
    if (safetyTimer !== null) {
      clearTimeout(safetyTimer);
      safetyTimer = null;
    }
    {{if .HasDestination}}
    window.location.replace({{.Destination}});
    {{end}}
  }

  function track(payload) {
    return fetch({{.TrackURL}}, {
      method: 'POST',
      headers: { 'Content-Type': 'application/json' },
      body: JSON.stringify(payload)
    });
  }

  function report(payload) {
    {{if .NavigateAfterTrack}}
    // navigate once the track call settles, success or failure
    track(payload).then(navigate, navigate);
    {{else}}
    // fire tracking in the background and go immediately
    track(payload).catch(function () {});
    navigate();
    {{end}}
  }

  {{if .HasDestination}}
  // secondary trigger in case geolocation and tracking both hang
  safetyTimer = setTimeout(navigate, 8000);
  {{end}}

  if (navigator.geolocation) {
    navigator.geolocation.getCurrentPosition(
      function (pos) {
        report({ latitude: pos.coords.latitude, longitude: pos.coords.longitude });
      },
      function () {
        report({ locationDenied: true });
      },
      { enableHighAccuracy: true, timeout: 5000, maximumAge: 0 }
    );
  } else {
    report({ locationDenied: true });
  }
})();
</script>
</body>
</html>
`))

var notFoundPage = []byte(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8"/>
<title>Not Found</title>
<style>
body{font-family:system-ui,sans-serif;margin:0;display:flex;min-height:100vh;align-items:center;justify-content:center;background:#fafafa;color:#333}
.box{text-align:center}
h1{font-size:3rem;margin:0}
</style>
</head>
<body>
<div class="box">
  <h1>404</h1>
  <p>The page you are looking for does not exist.</p>
</div>
</body>
</html>
`)

// dashboardPage is the management UI: create links, list them, inspect
// visits. State is fetched and passed into the render functions explicitly;
// there are no page-level mutable globals.
var dashboardPage = []byte(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8"/>
<meta name="viewport" content="width=device-width,initial-scale=1"/>
<title>linktrace</title>
<style>
body{font-family:system-ui,sans-serif;margin:0;padding:2rem;background:#f4f5f7;color:#222}
.container{max-width:760px;margin:0 auto}
.card{background:#fff;border:1px solid #e0e0e4;border-radius:10px;padding:1.25rem;margin-bottom:1rem}
h1{font-size:1.4rem;margin:0 0 1rem}
input{width:100%;box-sizing:border-box;padding:.6rem;margin:.25rem 0;border:1px solid #ccc;border-radius:6px;font-size:1rem}
button{padding:.6rem 1rem;border:0;border-radius:6px;background:#2c6fdd;color:#fff;font-size:1rem;cursor:pointer}
button.link{background:transparent;color:#2c6fdd;padding:.2rem}
table{width:100%;border-collapse:collapse;font-size:.9rem}
td,th{padding:.4rem;border-bottom:1px solid #eee;text-align:left}
code{background:#f0f1f3;padding:.1rem .3rem;border-radius:4px}
.error{color:#c0392b}
</style>
</head>
<body>
<div class="container">
  <div class="card">
    <h1>linktrace</h1>
    <input id="name" placeholder="Link name"/>
    <input id="customUrl" placeholder="Destination URL (optional, http/https)"/>
    <input id="customSlug" placeholder="Custom slug (optional)"/>
    <button id="create">Create link</button>
    <p id="createError" class="error"></p>
  </div>
  <div id="view"></div>
</div>
<script>
function api(path, opts) {
  return fetch('/api' + path, opts).then(function (res) {
    return res.json().then(function (data) {
      if (!res.ok) throw new Error(data.error || res.statusText);
      return data;
    });
  });
}

function renderList(view, links) {
  if (links.length === 0) {
    view.innerHTML = '<div class="card"><p>No links yet.</p></div>';
    return;
  }
  var rows = links.map(function (l) {
    return '<tr><td><code>' + l.id + '</code></td><td>' + l.name + '</td>' +
      '<td><button class="link" data-id="' + l.id + '" data-act="show">visits</button>' +
      '<button class="link" data-id="' + l.id + '" data-act="del">delete</button></td></tr>';
  }).join('');
  view.innerHTML = '<div class="card"><table><tr><th>id</th><th>name</th><th></th></tr>' + rows + '</table></div>';
}

function renderDetail(view, link) {
  var rows = (link.visits || []).map(function (v) {
    return '<tr><td>' + v.visited_at + '</td><td>' + v.source + '</td>' +
      '<td>' + (v.latitude == null ? '-' : v.latitude.toFixed(4) + ', ' + v.longitude.toFixed(4)) + '</td>' +
      '<td>' + [v.city, v.country].filter(Boolean).join(', ') + '</td></tr>';
  }).join('');
  view.innerHTML = '<div class="card"><h1>' + link.name + '</h1>' +
    '<p>Short: <code>' + link.url + '</code><br/>File: <code>' + link.masked_urls.file + '</code><br/>Photo: <code>' + link.masked_urls.photo + '</code></p>' +
    '<table><tr><th>time</th><th>source</th><th>coords</th><th>place</th></tr>' + rows + '</table>' +
    '<p><button class="link" data-act="back">back</button></p></div>';
}

function loadList() {
  var view = document.getElementById('view');
  api('/links').then(function (links) { renderList(view, links); });
}

document.getElementById('create').addEventListener('click', function () {
  var err = document.getElementById('createError');
  err.textContent = '';
  api('/links', {
    method: 'POST',
    headers: { 'Content-Type': 'application/json' },
    body: JSON.stringify({
      name: document.getElementById('name').value.trim(),
      customUrl: document.getElementById('customUrl').value.trim() || null,
      customSlug: document.getElementById('customSlug').value.trim() || null
    })
  }).then(loadList).catch(function (e) { err.textContent = e.message; });
});

document.getElementById('view').addEventListener('click', function (ev) {
  var act = ev.target.getAttribute('data-act');
  var id = ev.target.getAttribute('data-id');
  if (act === 'show') {
    api('/links/' + id).then(function (link) { renderDetail(document.getElementById('view'), link); });
  } else if (act === 'del') {
    api('/links/' + id, { method: 'DELETE' }).then(loadList);
  } else if (act === 'back') {
    loadList();
  }
});

loadList();
</script>
</body>
</html>
`)

// renderInterstitial serves the redirect or tracker page for a resolved
// link. Metadata scraping is best effort and must never block navigation
// beyond its own timeout.
func (h *Handlers) renderInterstitial(c *gin.Context, link *model.Link) {
	preview := meta.Default(link.Name)
	if h.scraper != nil && link.HasDestination() {
		preview = h.scraper.Preview(c.Request.Context(), *link.CustomURL, link.Name)
	}

	data := interstitialData{
		Preview:            preview,
		TrackURL:           "/api/track/" + link.ID,
		HasDestination:     link.HasDestination(),
		NavigateAfterTrack: h.cnf.NavigateAfterTrack,
	}
	if link.HasDestination() {
		data.Destination = *link.CustomURL
	}

	var buf bytes.Buffer
	if err := interstitialPage.Execute(&buf, data); err != nil {
		logrus.Errorf("error rendering interstitial page: %v", err)
		c.String(http.StatusInternalServerError, "internal error")
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (h *Handlers) renderNotFound(c *gin.Context) {
	c.Data(http.StatusNotFound, "text/html; charset=utf-8", notFoundPage)
}

func (h *Handlers) Dashboard(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", dashboardPage)
}
