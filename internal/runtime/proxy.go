package runtime

import (
	"context"
	"errors"
	stdlog "log"
	"net/http"
	"net/http/httputil"

	"github.com/soyeahso/agentchat/internal/agents"
)

// newProxy returns a reverse proxy that sends every request to the agent URL
// exactly. The inbound query string is kept. Hop-by-hop headers are dropped
// by httputil; nothing else about the request or response is changed, and
// responses are flushed as they arrive so event streams are not buffered.
func (h *Handler) newProxy(a agents.Agent) *httputil.ReverseProxy {
	target := a.URL
	zl := h.log.Zerolog()
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.Out.URL.Scheme = target.Scheme
			pr.Out.URL.Host = target.Host
			pr.Out.URL.Path = target.Path
			pr.Out.URL.RawPath = target.RawPath
			pr.Out.URL.RawQuery = joinQuery(target.RawQuery, pr.In.URL.RawQuery)
			pr.Out.Host = target.Host
		},
		Transport:     h.transport,
		FlushInterval: -1,
		ErrorLog:      stdlog.New(&zl, "", 0),
		ModifyResponse: func(resp *http.Response) error {
			if o, ok := resp.Request.Context().Value(outcomeKey{}).(*outcome); ok {
				o.status = resp.StatusCode
			}
			return nil
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			if o, ok := r.Context().Value(outcomeKey{}).(*outcome); ok {
				o.status = http.StatusBadGateway
				o.unreachable = true
			}
			ev := h.log.Warn()
			if errors.Is(err, context.Canceled) {
				ev = h.log.Debug()
			}
			ev.Err(err).Str("agent", a.Name).Msg("agent unreachable")
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": "upstream_error"})
		},
	}
}

func joinQuery(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + "&" + b
	}
}
