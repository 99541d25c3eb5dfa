package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"

	"github.com/sirupsen/logrus"

	"github.com/symsrv/symproxy/cache"
	"github.com/symsrv/symproxy/config"
)

type ctxKey int

// canonicalPathKey carries the normalized request path from the handler to
// the response hook, so the finalize registers the entry under exactly the
// key future lookups will use.
const canonicalPathKey ctxKey = iota

// reverseProxy forwards cache misses to the upstream symbol store and
// intercepts responses on the way back to feed the cache.
type reverseProxy struct {
	*httputil.ReverseProxy

	scheme string
	host   string
	cache  cache.Cache
}

func newReverseProxy(cfg config.Upstream, c cache.Cache) *reverseProxy {
	rp := &reverseProxy{
		scheme: cfg.Scheme,
		host:   cfg.Host,
		cache:  c,
	}
	rp.ReverseProxy = &httputil.ReverseProxy{
		Director:       rp.director,
		ModifyResponse: rp.modifyResponse,
		ErrorHandler:   rp.errorHandler,
	}
	return rp
}

// director rewrites the outbound request to address the upstream store
// directly. The request path has already been normalized by the handler.
func (rp *reverseProxy) director(req *http.Request) {
	req.URL.Scheme = rp.scheme
	req.URL.Host = rp.host
	req.Host = rp.host
	if _, ok := req.Header["User-Agent"]; !ok {
		// explicitly disable User-Agent so it's not set to default value
		req.Header.Set("User-Agent", "")
	}
}

// modifyResponse is invoked once per upstream response before it is
// finalized to the client.
func (rp *reverseProxy) modifyResponse(resp *http.Response) error {
	// The store reports a missing object as 403. Debugger clients take
	// repeated 403s as a reason to blacklist the whole server for the
	// session; 404 is the semantically closer answer and avoids that.
	if resp.StatusCode == http.StatusForbidden {
		resp.StatusCode = http.StatusNotFound
		resp.Status = fmt.Sprintf("%d %s", http.StatusNotFound, http.StatusText(http.StatusNotFound))
	}

	canonicalPath, _ := resp.Request.Context().Value(canonicalPathKey).(string)
	if canonicalPath == "" {
		return nil
	}

	if !rp.cache.ReserveCapacity() {
		cacheSkips.Inc()
		logrus.Debugf("proxy: cache full, not persisting %q", canonicalPath)
		return nil
	}

	// Tee the body into a finalize running in the background. The client
	// stream stays live: the finalize consumes the pipe as bytes flow to
	// the client and a cache-write failure never fails the response.
	key := cache.NewKey(canonicalPath)
	pr, pw := io.Pipe()
	statusCode := resp.StatusCode
	header := resp.Header.Clone()
	resp.Body = &teeBodyReader{rc: resp.Body, pw: pw}

	go func() {
		err := rp.cache.Finalize(key, statusCode, header, pr)
		if err != nil {
			logrus.WithField("key", key.String()).Errorf("proxy: cache write for %q failed: %s", canonicalPath, err)
		}
		// Unblock any tee writes still in flight.
		pr.CloseWithError(err)
	}()

	return nil
}

func (rp *reverseProxy) errorHandler(rw http.ResponseWriter, req *http.Request, err error) {
	requestErrors.Inc()
	respondWithInternalError(rw, req, err)
}

// errBodyAborted marks an upstream body that was closed before EOF, either
// by a client disconnect or an upstream failure mid-stream.
var errBodyAborted = errors.New("response body aborted before EOF")

// teeBodyReader mirrors everything read from the upstream body into a pipe
// feeding the cache finalize. The tee is strictly best effort: once the
// pipe rejects a write the mirroring stops and reads continue undisturbed.
type teeBodyReader struct {
	rc io.ReadCloser
	pw *io.PipeWriter

	sawEOF bool
	broken bool
}

func (t *teeBodyReader) Read(p []byte) (int, error) {
	n, err := t.rc.Read(p)
	if n > 0 && !t.broken {
		if _, werr := t.pw.Write(p[:n]); werr != nil {
			t.broken = true
		}
	}
	if errors.Is(err, io.EOF) {
		t.sawEOF = true
	}
	return n, err
}

func (t *teeBodyReader) Close() error {
	if t.sawEOF {
		t.pw.Close()
	} else {
		// Torn stream: fail the finalize so a truncated body is never
		// registered as a valid entry.
		t.pw.CloseWithError(errBodyAborted)
	}
	return t.rc.Close()
}

// withCanonicalPath stamps the canonical path onto the request context.
func withCanonicalPath(req *http.Request, canonicalPath string) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), canonicalPathKey, canonicalPath))
}
