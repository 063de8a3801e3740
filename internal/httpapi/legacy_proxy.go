package httpapi

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
)

// NewLegacyProxy builds the catch-all reverse proxy for the "legacy" port
// (spec §4.3): every method/path is forwarded verbatim to
// http://<sandboxHost>:<sandboxPort><path>, and the upstream's status,
// headers, and body are returned unchanged. Runs on its own listener,
// joined to the main HTTP surface's lifetime via lifecycle.Manager.
func NewLegacyProxy(sandboxHost string, sandboxPort int) http.Handler {
	target := &url.URL{Scheme: "http", Host: fmt.Sprintf("%s:%d", sandboxHost, sandboxPort)}
	proxy := httputil.NewSingleHostReverseProxy(target)

	originalDirector := proxy.Director
	proxy.Director = func(r *http.Request) {
		originalDirector(r)
		r.Host = target.Host
	}
	return proxy
}
