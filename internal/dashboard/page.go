// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dashboard

import "html/template"

type reportLink struct {
	Name string
	URL  string
}

type indexData struct {
	Generator  string
	Evaluator  string
	Translator string
	Embedding  string
	Limit      int
	Topics     int
	Language   string
	Reports    []reportLink
}

var indexTmpl = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>Research Topic Brainstorming</title>
<style>
body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; line-height: 1.6; color: #333; max-width: 960px; margin: 0 auto; padding: 20px; background-color: #f4f7f6; }
h1 { color: #2c3e50; text-align: center; margin-bottom: 30px; }
section { background: white; border-radius: 8px; box-shadow: 0 4px 6px rgba(0,0,0,0.1); padding: 20px 25px; margin-bottom: 25px; }
label { display: block; margin-top: 10px; font-weight: bold; }
input { width: 100%; padding: 6px; box-sizing: border-box; }
button { margin-top: 15px; padding: 8px 18px; background: #3498db; color: white; border: none; border-radius: 4px; cursor: pointer; }
pre { background: #f8f9fa; padding: 10px; white-space: pre-wrap; }
.models td { padding-right: 20px; }
</style>
</head>
<body>
<h1>Research Topic Brainstorming</h1>

<section>
<h2>Models</h2>
<table class="models">
<tr><td>Embedding</td><td>{{.Embedding}}</td></tr>
<tr><td>Generator</td><td>{{.Generator}}</td></tr>
<tr><td>Evaluator</td><td>{{.Evaluator}}</td></tr>
<tr><td>Translator</td><td>{{.Translator}}</td></tr>
</table>
</section>

<section>
<h2>New session</h2>
<form id="brainstorm">
<label for="keyword">Keyword</label>
<input id="keyword" name="keyword" required>
<label for="limit">Papers</label>
<input id="limit" name="limit" type="number" min="10" max="500" value="{{.Limit}}">
<label for="topics">Topics</label>
<input id="topics" name="topics" type="number" min="1" max="20" value="{{.Topics}}">
<label for="language">Translate to (empty to skip)</label>
<input id="language" name="language" value="{{.Language}}">
<button type="submit">Brainstorm</button>
</form>
<pre id="brainstorm-out"></pre>
</section>

<section>
<h2>Ask the papers</h2>
<form id="chat">
<label for="question">Question</label>
<input id="question" name="question" required>
<button type="submit">Ask</button>
</form>
<pre id="chat-out"></pre>
</section>

<section>
<h2>Reports</h2>
{{if .Reports}}<ul>
{{range .Reports}}<li><a href="{{.URL}}" target="_blank">{{.Name}}</a></li>
{{end}}</ul>{{else}}<p>No reports yet.</p>{{end}}
</section>

<script>
document.getElementById('brainstorm').addEventListener('submit', async (e) => {
  e.preventDefault();
  const f = e.target, out = document.getElementById('brainstorm-out');
  out.textContent = 'Running...';
  const resp = await fetch('/api/brainstorm', {method: 'POST', headers: {'Content-Type': 'application/json'}, body: JSON.stringify({
    keyword: f.keyword.value, limit: Number(f.limit.value), topics: Number(f.topics.value), language: f.language.value
  })});
  const body = await resp.json();
  if (!body.success) { out.textContent = body.error.message; return; }
  out.textContent = body.data.output;
  if (body.data.report_url) { window.open(body.data.report_url, '_blank'); }
});
document.getElementById('chat').addEventListener('submit', async (e) => {
  e.preventDefault();
  const out = document.getElementById('chat-out');
  out.textContent = '';
  const resp = await fetch('/api/chat', {method: 'POST', headers: {'Content-Type': 'application/json'}, body: JSON.stringify({question: e.target.question.value})});
  if (!resp.ok) { const body = await resp.json(); out.textContent = body.error.message; return; }
  const reader = resp.body.getReader(), dec = new TextDecoder();
  for (;;) { const {done, value} = await reader.read(); if (done) break; out.textContent += dec.decode(value, {stream: true}); }
});
</script>
</body>
</html>
`))
