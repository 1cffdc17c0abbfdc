package webserver

import (
	"html/template"
	"net/http"
)

type pageData struct {
	Title string
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
  <head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
    <style>
        * {
            margin: 0;
            font-family: sans-serif;
        }
        #controls {
            position: fixed;
            top: 8px;
            left: 8px;
            z-index: 1;
            padding: 8px;
            background: rgba(255, 255, 255, 0.9);
        }
        #graph {
            width: 100vw;
            height: 100vh;
        }
    </style>
    <script type="text/javascript"
      src="https://unpkg.com/vis-network/standalone/umd/vis-network.min.js"></script>
  </head>
  <body>
    <form id="controls">
      <input id="userName" placeholder="user name" required>
      <input id="depth" type="number" min="0" value="1">
      <button type="submit">Render</button>
      <button type="button" id="reset">Reset</button>
      <span id="status"></span>
    </form>
    <div id="graph"></div>
    <script type="text/javascript">
const status = document.getElementById("status");
const nodes = new vis.DataSet([]);
const edges = new vis.DataSet([]);
const network = new vis.Network(
  document.getElementById("graph"),
  { nodes: nodes, edges: edges },
  { physics: { enabled: true, solver: "barnesHut" }, layout: { improvedLayout: false } },
);

async function post(path, body) {
  const resp = await fetch(path, {
    method: "POST",
    headers: { "Content-Type": "application/json" },
    body: JSON.stringify(body || {}),
  });
  const json = await resp.json();
  status.textContent = resp.ok ? json.displayed + " users shown" : json.error;
}

document.getElementById("controls").addEventListener("submit", (ev) => {
  ev.preventDefault();
  post("/api/render", {
    userName: document.getElementById("userName").value,
    depth: parseInt(document.getElementById("depth").value, 10),
  });
});
document.getElementById("reset").addEventListener("click", () => post("/api/reset"));

network.on("doubleClick", (params) => {
  if (params.nodes.length === 1) {
    post("/api/expand", { userId: params.nodes[0] });
  }
});

function connect() {
  const scheme = location.protocol === "https:" ? "wss://" : "ws://";
  const ws = new WebSocket(scheme + location.host + "/ws");
  ws.onmessage = (ev) => {
    const msg = JSON.parse(ev.data);
    if (msg.type === "init" || msg.type === "clear") {
      nodes.clear();
      edges.clear();
    }
    nodes.update(msg.nodes || []);
    edges.add(msg.edges || []);
  };
  ws.onclose = () => setTimeout(connect, 1000);
}
connect();
    </script>
  </body>
</html>`))

func (s *Server) page(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, pageData{Title: s.title}); err != nil {
		s.logger.Warn("failed to render page", "error", err)
	}
}
