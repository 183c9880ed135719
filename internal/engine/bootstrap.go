package engine

// Private bindings the bootstrap script reports through.
const (
	bindScroll     = "__surfaceScroll"
	bindResize     = "__surfaceResize"
	bindSelection  = "__surfaceSelection"
	bindFullscreen = "__surfaceFullscreen"
)

var privateBindings = []string{bindScroll, bindResize, bindSelection, bindFullscreen}

// bootstrapJS installs the DOM listeners that stand in for native view
// callbacks. It runs in every new document and once on the current one.
const bootstrapJS = `(function(){
  if (window.__surfaceInstalled) return;
  window.__surfaceInstalled = true;
  var send = function(name, v) {
    try { window[name](typeof v === 'string' ? v : JSON.stringify(v)); } catch (e) {}
  };
  var root = function() { return document.documentElement || document.body; };
  var scroll = function() {
    var d = root(); if (!d) return;
    send('__surfaceScroll', {
      x: Math.round(window.scrollX), y: Math.round(window.scrollY),
      contentWidth: d.scrollWidth, contentHeight: d.scrollHeight,
      viewportWidth: window.innerWidth, viewportHeight: window.innerHeight
    });
  };
  var lastW = -1, lastH = -1;
  var resize = function() {
    var d = root(); if (!d) return;
    if (d.scrollWidth === lastW && d.scrollHeight === lastH) return;
    lastW = d.scrollWidth; lastH = d.scrollHeight;
    send('__surfaceResize', {width: lastW, height: lastH});
  };
  window.addEventListener('scroll', scroll, {passive: true});
  window.addEventListener('resize', resize);
  window.addEventListener('load', resize);
  document.addEventListener('DOMContentLoaded', function() {
    resize();
    if (window.ResizeObserver) new ResizeObserver(resize).observe(root());
  });
  var selecting = false;
  document.addEventListener('selectionchange', function() {
    var s = window.getSelection();
    var has = !!(s && s.toString());
    if (has === selecting) return;
    selecting = has;
    send('__surfaceSelection', has ? 'start' : 'clear');
  });
  document.addEventListener('fullscreenchange', function() {
    send('__surfaceFullscreen', document.fullscreenElement ? 'enter' : 'exit');
  });
})();`

const exitFullscreenJS = `(function(){
  if (document.fullscreenElement && document.exitFullscreen) { document.exitFullscreen(); return true; }
  return false;
})()`

func nestedScrollJS(enabled bool) string {
	value := "''"
	if enabled {
		value = "'contain'"
	}
	return `(function(){
  var apply = function() { if (document.documentElement) document.documentElement.style.overscrollBehavior = ` + value + `; };
  if (document.documentElement) apply(); else document.addEventListener('DOMContentLoaded', apply);
})();`
}
