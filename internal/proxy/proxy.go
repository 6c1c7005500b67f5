// internal/proxy/proxy.go
package proxy

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"

	"go.uber.org/zap"
)

// New builds the reverse proxy that forwards dispatched requests to the
// upstream storefront application. The dispatcher has already rewritten the
// URL and attached tenant identity headers by the time a request gets here;
// the original Host header is forwarded so the upstream can render
// host-dependent pages (e.g. canonical links).
func New(upstream string, log *zap.SugaredLogger) (http.Handler, error) {
	target, err := url.Parse(upstream)
	if err != nil {
		return nil, fmt.Errorf("parse upstream url: %w", err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("upstream url %q must be absolute", upstream)
	}

	p := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
			// Keep the tenant's public hostname visible to the upstream.
			pr.Out.Host = pr.In.Host
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			log.Errorw("upstream proxy error", "path", r.URL.Path, "err", err)
			http.Error(w, "upstream unavailable", http.StatusBadGateway)
		},
	}
	return p, nil
}
