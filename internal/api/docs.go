package api

// docsHTML frames the OpenAPI reference under a nav bar that jumps to the
// entry operation of each group. Links use the elements hash router.
const docsHTML = `<!doctype html>
<html lang="en" data-theme="dark">
<head>
  <meta charset="utf-8" />
  <meta name="referrer" content="same-origin" />
  <meta name="viewport" content="width=device-width, initial-scale=1, shrink-to-fit=no" />
  <title>Surface Bridge API</title>
  <link href="https://unpkg.com/@stoplight/elements@9.0.0/styles.min.css" rel="stylesheet" />
  <script src="https://unpkg.com/@stoplight/elements@9.0.0/web-components.min.js" crossorigin="anonymous"></script>
  <style>
    html, body { height: 100%; margin: 0; }
    body { display: flex; flex-direction: column; background: #0d1117; }
    .groups {
      display: flex;
      align-items: center;
      gap: 18px;
      height: 44px;
      padding: 0 20px;
      background: #161b22;
      border-bottom: 1px solid #30363d;
      font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif;
      font-size: 13px;
      flex-shrink: 0;
    }
    .groups .brand { color: #f0f6fc; font-weight: 600; margin-right: 8px; }
    .groups a { color: #8b949e; text-decoration: none; }
    .groups a:hover { color: #58a6ff; }
    .groups .streams { margin-left: auto; color: #58a6ff; }
    .reference { flex: 1; min-height: 0; }
  </style>
</head>
<body>
  <div class="groups">
    <span class="brand">Surface Bridge</span>
    <a href="#/operations/list-surfaces" title="create, load, inject, toggle messaging and reporting">Surfaces</a>
    <a href="#/operations/set-menu-items" title="custom menu items and action mode">Selection</a>
    <a href="#/operations/list-prints" title="PDFs spooled by the print command">Prints</a>
    <a href="#/operations/health">Health</a>
    <a class="streams" href="/docs/streams">Event Streams →</a>
  </div>
  <div class="reference">
    <elements-api
      apiDescriptionUrl="/openapi.json"
      router="hash"
      layout="sidebar"
      tryItCredentialsPolicy="same-origin"
      darkMode
    />
  </div>
</body>
</html>`
