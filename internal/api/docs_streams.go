package api

const streamsDocsHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>Event Streams - Surface Bridge</title>
  <style>
    *, *::before, *::after { box-sizing: border-box; }

    body {
      margin: 0;
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", sans-serif;
      font-size: 14px;
      line-height: 1.65;
      background: #0d1117;
      color: #c9d1d9;
      display: flex;
      flex-direction: column;
      min-height: 100vh;
    }

    a { color: #58a6ff; text-decoration: none; }
    a:hover { text-decoration: underline; }

    /* ── top nav ── */
    nav {
      background: #161b22;
      border-bottom: 1px solid #30363d;
      padding: 0 24px;
      height: 48px;
      display: flex;
      align-items: center;
      gap: 24px;
      flex-shrink: 0;
    }
    nav .brand {
      font-weight: 600;
      font-size: 15px;
      color: #e6edf3;
    }
    nav .sep { color: #484f58; }
    nav .current { color: #e6edf3; font-weight: 500; }
    nav .back { font-size: 13px; }

    /* ── layout ── */
    .layout {
      display: flex;
      flex: 1;
      max-width: 1100px;
      width: 100%;
      margin: 0 auto;
      padding: 0 16px;
    }

    /* ── sidebar ── */
    aside {
      width: 220px;
      flex-shrink: 0;
      padding: 32px 16px 32px 0;
      position: sticky;
      top: 0;
      height: calc(100vh - 48px);
      overflow-y: auto;
    }
    aside h4 {
      margin: 0 0 8px;
      font-size: 11px;
      font-weight: 600;
      text-transform: uppercase;
      letter-spacing: .08em;
      color: #8b949e;
    }
    aside ul {
      list-style: none;
      margin: 0 0 24px;
      padding: 0;
    }
    aside ul li a {
      display: block;
      padding: 4px 8px;
      border-radius: 4px;
      font-size: 13px;
      color: #8b949e;
    }
    aside ul li a:hover {
      background: #21262d;
      color: #c9d1d9;
      text-decoration: none;
    }

    /* ── main content ── */
    main {
      flex: 1;
      padding: 32px 0 64px 32px;
      border-left: 1px solid #21262d;
      min-width: 0;
    }

    h1 {
      margin: 0 0 8px;
      font-size: 28px;
      font-weight: 600;
      color: #e6edf3;
    }
    .subtitle {
      color: #8b949e;
      margin: 0 0 36px;
      font-size: 15px;
    }

    h2 {
      margin: 40px 0 12px;
      font-size: 18px;
      font-weight: 600;
      color: #e6edf3;
      padding-bottom: 8px;
      border-bottom: 1px solid #21262d;
    }
    h3 {
      margin: 28px 0 10px;
      font-size: 15px;
      font-weight: 600;
      color: #e6edf3;
    }

    p { margin: 0 0 12px; }

    /* ── method + path badge ── */
    .endpoint {
      display: inline-flex;
      align-items: center;
      gap: 10px;
      background: #161b22;
      border: 1px solid #30363d;
      border-radius: 6px;
      padding: 10px 16px;
      margin-bottom: 20px;
      font-family: "SFMono-Regular", Consolas, "Liberation Mono", Menlo, monospace;
      font-size: 14px;
    }
    .method {
      background: #1f6feb;
      color: #fff;
      font-weight: 700;
      font-size: 11px;
      padding: 2px 7px;
      border-radius: 4px;
      letter-spacing: .04em;
    }
    .path { color: #e6edf3; }

    /* ── tables ── */
    table {
      width: 100%;
      border-collapse: collapse;
      margin-bottom: 20px;
      font-size: 13px;
    }
    th {
      text-align: left;
      padding: 8px 12px;
      background: #161b22;
      color: #8b949e;
      font-weight: 600;
      border-bottom: 1px solid #30363d;
    }
    td {
      padding: 8px 12px;
      border-bottom: 1px solid #21262d;
      vertical-align: top;
    }
    tr:last-child td { border-bottom: none; }
    code {
      font-family: "SFMono-Regular", Consolas, "Liberation Mono", Menlo, monospace;
      font-size: 12px;
      background: #161b22;
      border: 1px solid #30363d;
      border-radius: 3px;
      padding: 1px 5px;
      color: #e6edf3;
    }

    /* ── code blocks ── */
    pre {
      background: #161b22;
      border: 1px solid #30363d;
      border-radius: 6px;
      padding: 16px;
      overflow-x: auto;
      margin: 0 0 20px;
    }
    pre code {
      background: none;
      border: none;
      padding: 0;
      font-size: 13px;
      line-height: 1.6;
      color: #c9d1d9;
    }

    /* ── callout ── */
    .callout {
      background: #161b22;
      border-left: 3px solid #1f6feb;
      border-radius: 0 6px 6px 0;
      padding: 12px 16px;
      margin-bottom: 20px;
      font-size: 13px;
    }
    .callout.warning { border-color: #d29922; }
    .callout strong { color: #e6edf3; }

    /* ── SSE format visualization ── */
    .sse-block {
      background: #161b22;
      border: 1px solid #30363d;
      border-radius: 6px;
      padding: 16px;
      margin-bottom: 20px;
      font-family: "SFMono-Regular", Consolas, "Liberation Mono", Menlo, monospace;
      font-size: 13px;
      line-height: 1.8;
    }
    .sse-key { color: #79c0ff; }
    .sse-value { color: #a5d6ff; }
    .sse-comment { color: #484f58; }
  </style>
</head>
<body>

<nav>
  <span class="brand">Surface Bridge</span>
  <span class="sep">/</span>
  <span class="current">Event Streams</span>
  <a class="back" href="/docs">&larr; REST API Docs</a>
</nav>

<div class="layout">

  <aside>
    <h4>On this page</h4>
    <ul>
      <li><a href="#overview">Overview</a></li>
      <li><a href="#hostlink">Host Link</a></li>
      <li><a href="#events">Dispatched Events</a></li>
      <li><a href="#kinds">Event Kinds</a></li>
      <li><a href="#notes">Notes</a></li>
    </ul>
  </aside>

  <main>
    <h1>Event Streams</h1>
    <p class="subtitle">How page messages and surface events reach the host.</p>

    <h2 id="overview">Overview</h2>
    <p>
      A page message is delivered on exactly one path. When a host module is linked
      over <code>/api/v1/hostlink</code>, messages are called straight into that module.
      Otherwise, and for every other surface event, the event goes through the
      dispatcher and is streamed on <code>/api/v1/events</code>.
    </p>

    <h2 id="hostlink">Host Link</h2>
    <div class="endpoint"><span class="method">GET</span><span class="path">/api/v1/hostlink?module=SurfaceView</span></div>
    <p>
      Upgrades to a WebSocket. The server writes one text frame per call, in call order.
      A second connection for the same module replaces the first.
    </p>
    <pre><code>{"module":"SurfaceView","method":"onMessage","args":[{"nativeEvent":{"target":1,"url":"https://example.com","title":"Example","loading":false,"canGoBack":false,"canGoForward":false,"data":"hello"}}]}</code></pre>

    <h2 id="events">Dispatched Events</h2>
    <div class="endpoint"><span class="method">GET</span><span class="path">/api/v1/events</span></div>
    <table>
      <thead><tr><th>Parameter</th><th>Description</th></tr></thead>
      <tbody>
        <tr><td><code>targets</code></td><td>Comma separated surface tags. Omit for all surfaces.</td></tr>
        <tr><td><code>kinds</code></td><td>Comma separated event kinds. Omit for all kinds.</td></tr>
      </tbody>
    </table>
    <div class="sse-block">
      <span class="sse-key">id</span>: <span class="sse-value">42</span><br>
      <span class="sse-key">event</span>: <span class="sse-value">scroll</span><br>
      <span class="sse-key">data</span>: <span class="sse-value">{"seq":42,"kind":"scroll","target":1,"payload":{"x":0,"y":120,"velocityX":0,"velocityY":1.5}}</span>
    </div>

    <h2 id="kinds">Event Kinds</h2>
    <table>
      <thead><tr><th>Kind</th><th>Sent when</th></tr></thead>
      <tbody>
        <tr><td><code>message</code></td><td>A page posted a message and no host module is linked.</td></tr>
        <tr><td><code>scroll</code></td><td>Scroll reporting is on and the offset changed.</td></tr>
        <tr><td><code>sizeChange</code></td><td>Size reporting is on and the content size changed.</td></tr>
        <tr><td><code>customMenuSelection</code></td><td>A custom selection menu item was clicked.</td></tr>
        <tr><td><code>loadingStart</code></td><td>The surface started loading.</td></tr>
        <tr><td><code>loadingProgress</code></td><td>The load progressed.</td></tr>
        <tr><td><code>loadingFinish</code></td><td>The load finished.</td></tr>
      </tbody>
    </table>

    <h2 id="notes">Notes</h2>
    <ul>
      <li>
        <strong>Back-pressure:</strong> each subscriber has a 256-event buffer. Events for a
        slow client are dropped and counted; the dispatcher never blocks the UI loop.
      </li>
      <li>
        <strong>Journal:</strong> every dispatched event is also appended to a daily JSONL
        file under <code>SURFACE_JOURNAL_DIR</code>. Set <code>SURFACE_JOURNAL_ENABLED=false</code> to turn it off.
      </li>
      <li>
        <strong>Authentication:</strong> none. Bind to <code>127.0.0.1</code> (the default).
      </li>
    </ul>

  </main>
</div>

</body>
</html>`
