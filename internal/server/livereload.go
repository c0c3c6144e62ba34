package server

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"
)

// noCache marks responses as never cacheable so edits show up on reload.
func noCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")
		next.ServeHTTP(w, r)
	})
}

// injectLiveReload adds the live-reload client to successful HTML responses
// of next, just before </body>.
func injectLiveReload(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || !isHTMLPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		bw := &bufferedWriter{header: make(http.Header), status: http.StatusOK}
		next.ServeHTTP(bw, r)

		for key, values := range bw.header {
			w.Header()[key] = values
		}
		body := bw.body.Bytes()
		if bw.status == http.StatusOK && strings.HasPrefix(bw.header.Get("Content-Type"), "text/html") {
			body = injectScript(body)
			w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		}
		w.WriteHeader(bw.status)
		_, _ = w.Write(body)
	})
}

func isHTMLPath(p string) bool {
	return strings.HasSuffix(p, "/") || strings.HasSuffix(p, ".html") || strings.HasSuffix(p, ".htm")
}

// injectScript inserts the live-reload script before the last </body>, or
// appends it when the document has none.
func injectScript(body []byte) []byte {
	i := bytes.LastIndex(bytes.ToLower(body), []byte("</body>"))
	if i < 0 {
		return append(body, liveReloadScript...)
	}
	out := make([]byte, 0, len(body)+len(liveReloadScript))
	out = append(out, body[:i]...)
	out = append(out, liveReloadScript...)
	return append(out, body[i:]...)
}

type bufferedWriter struct {
	header http.Header
	body   bytes.Buffer
	status int
}

func (b *bufferedWriter) Header() http.Header         { return b.header }
func (b *bufferedWriter) Write(p []byte) (int, error) { return b.body.Write(p) }
func (b *bufferedWriter) WriteHeader(status int)      { b.status = status }

const liveReloadScript = `<script>
  (function() {
    var proto = window.location.protocol === "https:" ? "wss://" : "ws://";
    var socket = new WebSocket(proto + window.location.host + "/_lanterns/ws");
    socket.onmessage = function(event) {
      if (event.data === "reload") {
        window.location.reload();
      }
    };
    socket.onerror = function() {
      console.error("Live reload connection lost. Restart 'lanterns serve'.");
    };
  })();
</script>
`
