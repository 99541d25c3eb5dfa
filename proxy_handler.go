package main

import (
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/symsrv/symproxy/cache"
	"github.com/symsrv/symproxy/config"
)

const (
	healthPath    = "/health"
	aliveResponse = "Alive"
)

// proxyHandler implements the cache-aside flow: derive the canonical path
// and key, serve fresh entries straight from disk and delegate everything
// else to the forwarding proxy.
type proxyHandler struct {
	normalizer *pathNormalizer
	cache      cache.Cache
	proxy      *reverseProxy
}

func newProxyHandler(cfg *config.Config, c cache.Cache, proxy *reverseProxy) *proxyHandler {
	return &proxyHandler{
		normalizer: newPathNormalizer(cfg.Aliases, cfg.Upstream.PathPrefix),
		cache:      c,
		proxy:      proxy,
	}
}

func (h *proxyHandler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	// Liveness probes bypass normalization, cache and upstream entirely.
	if r.URL.Path == healthPath {
		rw.WriteHeader(http.StatusOK)
		io.WriteString(rw, aliveResponse)
		return
	}

	// Served responses are debugger-facing; allow cross-origin GETs.
	rw.Header().Set("Access-Control-Allow-Origin", "*")
	rw.Header().Set("Access-Control-Allow-Methods", "GET")

	// Normalize the raw (still encoded) path: the `+`/`%2b` quirks only
	// exist in the encoded representation.
	canonicalPath := h.normalizer.Normalize(r.URL.EscapedPath())
	key := cache.NewKey(canonicalPath)

	if cr, err := h.cache.Get(key); err == nil {
		cacheHits.Inc()
		h.serveFromCache(rw, r, cr)
		return
	}

	cacheMisses.Inc()

	r = withCanonicalPath(r, canonicalPath)
	r.URL.RawPath = canonicalPath
	if p, err := url.PathUnescape(canonicalPath); err == nil {
		r.URL.Path = p
	} else {
		r.URL.Path = canonicalPath
	}

	srw := &statResponseWriter{
		ResponseWriter: rw,
		statusCode:     http.StatusOK,
		bytesWritten:   proxiedBytes,
	}
	h.proxy.ServeHTTP(srw, r)
	statusCodes.With(prometheus.Labels{"code": strconv.Itoa(srw.statusCode), "source": "upstream"}).Inc()
}

func (h *proxyHandler) serveFromCache(rw http.ResponseWriter, r *http.Request, cr *cache.CachedResponse) {
	defer cr.Body.Close()

	for name, values := range cr.Header {
		for _, v := range values {
			rw.Header().Add(name, v)
		}
	}
	rw.WriteHeader(cr.StatusCode)

	srw := &statResponseWriter{
		ResponseWriter: rw,
		statusCode:     cr.StatusCode,
		bytesWritten:   cachedBytes,
	}
	if _, err := io.Copy(srw, cr.Body); err != nil {
		// Nothing to recover: the status line is out already and the
		// client has most likely gone away.
		logrus.Debugf("cannot stream cached response for %q: %s", r.URL.Path, err)
	}
	statusCodes.With(prometheus.Labels{"code": strconv.Itoa(cr.StatusCode), "source": "cache"}).Inc()
}
