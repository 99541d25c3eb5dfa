package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/symsrv/symproxy/cache"
	"github.com/symsrv/symproxy/config"
	"github.com/symsrv/symproxy/middleware"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("error while loading config: %s", err)
	}

	initLogging(cfg.LogDebug)

	c, err := cache.New(cfg.Cache)
	if err != nil {
		logrus.Fatalf("error while initializing cache: %s", err)
	}
	registerCacheMetrics(c)

	proxy := newReverseProxy(cfg.Upstream, c)
	handler := newProxyHandler(cfg, c, proxy)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", middleware.NewRecoveryMiddleware(handler))

	addr := fmt.Sprintf(":%d", cfg.ListenPort)
	ln, err := net.Listen("tcp4", addr)
	if err != nil {
		logrus.Fatalf("cannot listen for %q: %s", addr, err)
	}

	srv := &http.Server{
		Handler: mux,
	}

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		s := <-sig
		logrus.Infof("%s received; shutting down", s)

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logrus.Errorf("error while shutting down: %s", err)
		}
	}()

	logrus.Infof("serving http on %q; upstream %s://%s", addr, cfg.Upstream.Scheme, cfg.Upstream.Host)
	if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
		logrus.Fatalf("HTTP server error on %q: %s", addr, err)
	}

	if err := c.Close(); err != nil {
		logrus.Errorf("error while closing cache: %s", err)
	}
}

func initLogging(debug bool) {
	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	if debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
}
