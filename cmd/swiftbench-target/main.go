// swiftbench-target is a small mock HTTP server for exercising swiftbench
// locally. It speaks HTTP/1.1 and cleartext HTTP/2 (h2c) and serves either a
// default echo route or routes from a JSON file, each with a configurable
// status, delay, and body.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// Route is one mock endpoint.
type Route struct {
	Path    string `json:"path"`
	Method  string `json:"method"`
	Status  int    `json:"status"`
	DelayMs int    `json:"delay_ms"`
	Body    string `json:"body"`
	Echo    bool   `json:"echo"` // reply with the request body
}

// Config is the optional routes file.
type Config struct {
	Routes []Route `json:"routes"`
}

func loadConfig(p string) (*Config, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var cfg Config
	if err := json.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func routeHandler(r Route) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if r.Method != "" && req.Method != r.Method {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		body := []byte(r.Body)
		if r.Echo {
			body, _ = io.ReadAll(req.Body)
		}
		if r.DelayMs > 0 {
			time.Sleep(time.Duration(r.DelayMs) * time.Millisecond)
		}
		status := r.Status
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		w.Write(body)
	}
}

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	routesPath := flag.String("routes", "", "optional JSON routes file")
	flag.Parse()

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	mux := http.NewServeMux()
	registered := 0
	if *routesPath != "" {
		cfg, err := loadConfig(*routesPath)
		if err != nil {
			logrus.Fatalf("failed to load routes: %v", err)
		}
		for _, r := range cfg.Routes {
			p := path.Clean(r.Path)
			mux.Handle(p, routeHandler(r))
			logrus.Infof("registered %s %s -> %d", r.Method, p, r.Status)
			registered++
		}
	}
	if registered == 0 {
		mux.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
			fmt.Fprintf(w, "ok: %s %s", req.Method, req.URL.Path)
		})
	}

	srv := &http.Server{
		Addr:         *addr,
		Handler:      h2c.NewHandler(mux, &http2.Server{}),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logrus.Infof("target server on %s", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logrus.Info("shutting down")
	if err := srv.Shutdown(ctx); err != nil {
		logrus.Fatalf("graceful shutdown failed: %v", err)
	}
}
