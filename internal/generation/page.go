package generation

import (
	"fmt"

	json "github.com/json-iterator/go"
)

// The bootstrap document is the page's entire world: it loads the library
// script, defines the one observable state global and the driver function.
// The host never mutates window.__easel; it only observes it through
// evaluation calls, and the page only ever transitions it forward. The data
// and error slots are always written before the ready flag flips so a poller
// that sees ready=true can trust the slots.
const pageTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>easel</title>
<script src="%s"></script>
<script>
window.__easel = { ready: false, data: null, error: null };

window.runGeneration = function (prompt, model) {
  var state = window.__easel;
  state.ready = false;
  state.data = null;
  state.error = null;
  puter.ai.txt2img(prompt, { model: model })
    .then(function (image) {
      state.data = image && image.src ? image.src : String(image);
      state.ready = true;
    })
    .catch(function (err) {
      if (err && err.message) {
        state.error = err.message;
      } else if (err && err.error && err.error.message) {
        state.error = err.error.message;
      } else {
        try { state.error = JSON.stringify(err); } catch (_) { state.error = String(err); }
      }
      state.ready = true;
    });
};
</script>
</head>
<body></body>
</html>`

// libraryReadyExpression is true once the library's entry object and its
// generation function are both defined. Polled during bootstrap; never
// satisfied when the script URL is unreachable.
const libraryReadyExpression = `typeof puter !== 'undefined' && typeof puter.ai !== 'undefined' && typeof puter.ai.txt2img === 'function'`

// snapshotExpression projects the page state into the shape of
// schemas.PollSnapshot. Evaluated on every poll tick.
const snapshotExpression = `(function () {
  var s = window.__easel || {};
  return {
    ready: s.ready === true,
    hasData: s.data !== null && s.data !== undefined && String(s.data).length > 0,
    error: s.error === null || s.error === undefined ? "" : String(s.error)
  };
})()`

// resultDataExpression reads the data slot once, as a string. Kept separate
// from the snapshot so poll ticks never ship a multi-megabyte data URL over
// the protocol.
const resultDataExpression = `(function () {
  var s = window.__easel || {};
  return s.data === null || s.data === undefined ? "" : String(s.data);
})()`

// fetchTemplate downloads a URL inside the page context so session state
// established while loading the library is preserved, and hands the body
// back base64-encoded. Chunked to stay under the argument limit of
// String.fromCharCode.apply.
const fetchTemplate = `(function (url) {
  return fetch(url).then(function (response) {
    if (!response.ok) {
      throw new Error('fetch failed with status ' + response.status);
    }
    return response.arrayBuffer();
  }).then(function (buffer) {
    var bytes = new Uint8Array(buffer);
    var chunks = [];
    for (var i = 0; i < bytes.length; i += 0x8000) {
      chunks.push(String.fromCharCode.apply(null, bytes.subarray(i, i + 0x8000)));
    }
    return btoa(chunks.join(''));
  });
})(%s)`

// pageDocument renders the bootstrap document for the configured script URL.
func pageDocument(scriptURL string) string {
	return fmt.Sprintf(pageTemplate, scriptURL)
}

// triggerExpression builds the driver invocation for a prompt and model.
func triggerExpression(prompt, model string) string {
	return fmt.Sprintf("window.runGeneration(%s, %s);", jsonEncode(prompt), jsonEncode(model))
}

// fetchExpression builds the in-page download call for a result URL.
func fetchExpression(url string) string {
	return fmt.Sprintf(fetchTemplate, jsonEncode(url))
}

// jsonEncode is a helper to safely encode a value (especially strings) for JS injection.
func jsonEncode(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		// Fallback for safety, although Marshal shouldn't fail often for simple types
		return `""`
	}
	return string(b)
}
