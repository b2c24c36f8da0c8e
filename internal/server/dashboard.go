package server

// DashboardHTML is the single-page live view of a replay.
// It polls /api/status and streams published batches over /ws.
const DashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Pacer Monitor</title>
<style>
  * { margin: 0; padding: 0; box-sizing: border-box; }
  body {
    font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, monospace;
    background: #0d1117; color: #c9d1d9; padding: 20px;
  }
  h1 { color: #58a6ff; margin-bottom: 4px; font-size: 1.5em; }
  .subtitle { color: #8b949e; margin-bottom: 20px; font-size: 0.9em; }
  .stats {
    display: grid; grid-template-columns: repeat(auto-fit, minmax(150px, 1fr));
    gap: 12px; margin-bottom: 20px;
  }
  .stat-card {
    background: #161b22; border: 1px solid #30363d; border-radius: 6px;
    padding: 16px; text-align: center;
  }
  .stat-number { font-size: 1.6em; font-weight: 700; color: #58a6ff; }
  .stat-label { font-size: 0.75em; color: #8b949e; text-transform: uppercase; }
  table { width: 100%; border-collapse: collapse; font-size: 0.85em; }
  th, td { text-align: left; padding: 6px 8px; border-bottom: 1px solid #21262d; }
  th { color: #8b949e; font-weight: 500; }
</style>
</head>
<body>
<h1>Pacer</h1>
<div class="subtitle" id="subtitle">connecting...</div>

<div class="stats">
  <div class="stat-card"><div class="stat-number" id="state">-</div><div class="stat-label">State</div></div>
  <div class="stat-card"><div class="stat-number" id="published">0</div><div class="stat-label">Records</div></div>
  <div class="stat-card"><div class="stat-number" id="batches">0</div><div class="stat-label">Batches</div></div>
  <div class="stat-card"><div class="stat-number" id="last">-</div><div class="stat-label">Observed</div></div>
</div>

<table>
  <thead><tr><th>Published</th><th>From</th><th>Size</th><th>First record</th></tr></thead>
  <tbody id="batches-body"></tbody>
</table>

<script>
const MAX_ROWS = 200;

async function refresh() {
  try {
    const res = await fetch('/api/status');
    const s = await res.json();
    document.getElementById('subtitle').textContent =
      s.topic + ' via ' + s.transport + ' at ' + s.speed_factor + 'x (run ' + s.run_id + ')';
    document.getElementById('state').textContent = s.state;
    document.getElementById('published').textContent = s.published;
    document.getElementById('batches').textContent = s.batches;
    document.getElementById('last').textContent = s.last_timestamp || '-';
  } catch (e) {}
}

function connect() {
  const proto = location.protocol === 'https:' ? 'wss:' : 'ws:';
  const ws = new WebSocket(proto + '//' + location.host + '/ws');
  ws.onmessage = (e) => addBatch(JSON.parse(e.data));
  ws.onclose = () => setTimeout(connect, 2000);
}

function addBatch(b) {
  const body = document.getElementById('batches-body');
  const row = document.createElement('tr');
  const first = b.records.length ? JSON.stringify(b.records[0]) : '';
  [new Date(b.published).toLocaleTimeString(), b.from || '-', b.size, first].forEach((v) => {
    const td = document.createElement('td');
    td.textContent = v;
    row.appendChild(td);
  });
  body.insertBefore(row, body.firstChild);
  while (body.children.length > MAX_ROWS) body.removeChild(body.lastChild);
  refresh();
}

connect();
refresh();
setInterval(refresh, 2000);
</script>
</body>
</html>
`
