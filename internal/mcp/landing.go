package mcp

import "net/http"

const landingHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Lorekeeper MCP Server</title>
<style>
  *, *::before, *::after { box-sizing: border-box; margin: 0; padding: 0; }
  body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif; background: #1c1917; color: #e7e5e4; min-height: 100vh; display: flex; align-items: center; justify-content: center; }
  .card { max-width: 600px; width: 90%; background: #292524; border-radius: 12px; padding: 2.5rem; box-shadow: 0 25px 50px rgba(0,0,0,0.4); }
  h1 { font-size: 1.75rem; margin-bottom: 0.5rem; color: #fafaf9; }
  .subtitle { color: #a8a29e; margin-bottom: 1.75rem; }
  .section { margin-bottom: 1.5rem; }
  .section-title { font-size: 0.75rem; text-transform: uppercase; letter-spacing: 0.1em; color: #78716c; margin-bottom: 0.5rem; }
  a { color: #fbbf24; text-decoration: none; }
  a:hover { text-decoration: underline; }
  pre { background: #1c1917; border: 1px solid #44403c; border-radius: 8px; padding: 1rem; overflow-x: auto; font-size: 0.85rem; line-height: 1.5; color: #e7e5e4; }
  code { font-family: "SF Mono", "Fira Code", "Fira Mono", Menlo, monospace; }
  .status { display: inline-block; width: 8px; height: 8px; background: #22c55e; border-radius: 50%; margin-right: 0.5rem; }
  .endpoint { font-family: "SF Mono", monospace; font-size: 0.9rem; color: #fcd34d; }
  ul { list-style: none; }
  li { margin-bottom: 0.25rem; }
</style>
</head>
<body>
<div class="card">
  <h1>Lorekeeper MCP Server</h1>
  <p class="subtitle">Hybrid semantic and keyword search over tabletop RPG rulebooks, plus campaign record keeping, via the Model Context Protocol.</p>

  <div class="section">
    <div class="section-title">Tools</div>
    <ul>
      <li><code>search_rulebook</code> &mdash; search rules, spells, monsters, items</li>
      <li><code>add_rulebook</code> &mdash; ingest a PDF or markdown rulebook</li>
      <li><code>manage_campaign</code> &mdash; versioned campaign records</li>
      <li><code>manage_personality</code> &mdash; per-system voice profiles</li>
      <li><code>get_status</code> &mdash; corpus statistics</li>
    </ul>
  </div>

  <div class="section">
    <div class="section-title">Endpoints</div>
    <p><span class="status"></span><a href="/mcp" class="endpoint">/mcp</a> &mdash; MCP Streamable HTTP</p>
    <p><span class="status"></span><a href="/health" class="endpoint">/health</a> &mdash; Health check</p>
  </div>
</div>
</body>
</html>`

// NewLandingHandler returns an HTTP handler that serves the landing page at /.
func NewLandingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(landingHTML))
	}
}
