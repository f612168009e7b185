package server

// DashboardHTML is the embedded control panel. It shows the current
// multiplier, offers presets and a slider, and follows engine changes over
// WebSocket so the displayed value is always the clamped one.
const DashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Timewarp</title>
<style>
  * { margin: 0; padding: 0; box-sizing: border-box; }
  body {
    font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, monospace;
    background: #0d1117; color: #c9d1d9; padding: 20px;
  }
  h1 { color: #58a6ff; margin-bottom: 4px; font-size: 1.5em; }
  .subtitle { color: #8b949e; margin-bottom: 20px; font-size: 0.9em; }
  .panel {
    background: #161b22; border: 1px solid #30363d; border-radius: 6px;
    padding: 20px; max-width: 520px;
  }
  .multiplier { font-size: 3em; font-weight: 700; color: #d2a8ff; text-align: center; }
  .times { display: flex; justify-content: space-between; margin: 16px 0; font-size: 0.85em; color: #8b949e; }
  .presets { display: flex; gap: 8px; margin: 16px 0; flex-wrap: wrap; justify-content: center; }
  button {
    background: #21262d; color: #c9d1d9; border: 1px solid #30363d;
    border-radius: 6px; padding: 6px 14px; cursor: pointer; font-size: 1em;
  }
  button:hover { background: #30363d; }
  button.active { background: #1f6feb; border-color: #1f6feb; color: #fff; }
  input[type=range] { width: 100%; }
  .conn { font-size: 0.8em; margin-top: 12px; }
  .conn.ok { color: #3fb950; }
  .conn.lost { color: #f85149; }
</style>
</head>
<body>
<h1>Timewarp</h1>
<div class="subtitle">virtual clock control panel</div>
<div class="panel">
  <div class="multiplier" id="mult">1x</div>
  <div class="times">
    <span id="real">real: —</span>
    <span id="virtual">virtual: —</span>
  </div>
  <div class="presets" id="presets"></div>
  <input type="range" id="slider" min="-4" max="4" step="0.1" value="0">
  <div class="conn lost" id="conn">disconnected</div>
</div>
<script>
  const PRESETS = [0.25, 0.5, 1, 2, 4, 8, 16];
  let current = 1;

  function render(m) {
    current = m;
    document.getElementById('mult').textContent = m + 'x';
    document.getElementById('slider').value = Math.log2(m);
    document.querySelectorAll('#presets button').forEach(function (b) {
      b.classList.toggle('active', Number(b.dataset.m) === m);
    });
  }

  function put(m) {
    fetch('/api/multiplier', {
      method: 'PUT',
      headers: { 'Content-Type': 'application/json' },
      body: JSON.stringify({ multiplier: m })
    }).then(function (r) { return r.json(); })
      .then(function (body) { render(body.multiplier); });
  }

  const presets = document.getElementById('presets');
  PRESETS.forEach(function (m) {
    const b = document.createElement('button');
    b.textContent = m + 'x';
    b.dataset.m = m;
    b.onclick = function () { put(m); };
    presets.appendChild(b);
  });

  document.getElementById('slider').oninput = function (e) {
    put(Number(Math.pow(2, Number(e.target.value)).toFixed(2)));
  };

  function refreshTimes() {
    fetch('/api/time').then(function (r) { return r.json(); }).then(function (t) {
      document.getElementById('real').textContent = 'real: ' + t.real.slice(11, 19);
      document.getElementById('virtual').textContent = 'virtual: ' + t.virtual.slice(11, 19);
    });
  }
  setInterval(refreshTimes, 1000);
  refreshTimes();

  function connect() {
    const ws = new WebSocket((location.protocol === 'https:' ? 'wss://' : 'ws://') + location.host + '/ws');
    const conn = document.getElementById('conn');
    ws.onopen = function () { conn.textContent = 'connected'; conn.className = 'conn ok'; };
    ws.onmessage = function (ev) {
      const msg = JSON.parse(ev.data);
      if (msg.type === 'multiplier') render(msg.multiplier);
    };
    ws.onclose = function () {
      conn.textContent = 'disconnected';
      conn.className = 'conn lost';
      setTimeout(connect, 2000);
    };
  }
  connect();

  fetch('/api/multiplier').then(function (r) { return r.json(); })
    .then(function (body) { render(body.multiplier); });
</script>
</body>
</html>
`
