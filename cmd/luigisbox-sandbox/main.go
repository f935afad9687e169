// Command luigisbox-sandbox serves the in-memory Luigi's Box mock over HTTP so
// clients in other processes can be pointed at it.
package main

import (
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/answear/luigisbox_sdk_go/internal/devseed"
	"github.com/answear/luigisbox_sdk_go/pkg/config"
	"github.com/answear/luigisbox_sdk_go/pkg/luigisbox"
	"github.com/answear/luigisbox_sdk_go/pkg/luigisbox/mock"
)

type failConfig struct {
	rate float64
	code int
}

func main() {
	addr := flag.String("addr", ":8787", "listen address")
	seed := flag.String("seed", "", "path to YAML/JSON catalog seed")
	publicKey := flag.String("public-key", luigisbox.MockPublicKey, "accepted public key (empty disables signature checks)")
	privateKey := flag.String("private-key", luigisbox.MockPrivateKey, "private key paired with -public-key")
	pendingPolls := flag.Int("pending-polls", 0, "status queries answered with \"processing\" before a job completes")
	latency := flag.Duration("latency", 0, "artificial latency to inject per request")
	fail := flag.String("fail", "", "failure injection (rate=<float>,code=<httpStatus>)")
	logLevel := flag.String("log-level", "info", "log level (trace, debug, info, warn, error)")
	flag.Parse()

	logger := hclog.New(&hclog.LoggerOptions{
		Name:  "luigisbox-sandbox",
		Level: hclog.LevelFromString(*logLevel),
	})

	opts := []mock.Option{mock.WithPendingPolls(*pendingPolls)}
	if *publicKey != "" {
		opts = append(opts, mock.WithKeys(*publicKey, *privateKey))
	}
	m := mock.New(opts...)

	if *seed != "" {
		objects, err := devseed.LoadCatalog(*seed)
		if err != nil {
			logger.Error("load seed", "path", *seed, "error", err)
			os.Exit(1)
		}
		if err := m.Seed(objects); err != nil {
			logger.Error("apply seed", "path", *seed, "error", err)
			os.Exit(1)
		}
		logger.Info("catalog seeded", "objects", len(objects))
	}

	failCfg, err := parseFailConfig(*fail)
	if err != nil {
		logger.Error("parse fail flag", "error", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:              *addr,
		Handler:           withMiddleware(logger, *latency, failCfg, m),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("listening", "addr", *addr)
	host := *addr
	if strings.HasPrefix(host, ":") {
		host = "localhost" + host
	}
	fmt.Println()
	fmt.Printf("export %s=%s\n", luigisbox.EnvRuntimeMode, luigisbox.ModeHTTP)
	fmt.Printf("export %s=http://%s\n", config.EnvHost, host)
	fmt.Printf("export %s=%s\n", config.EnvPublicKey, *publicKey)
	fmt.Printf("export %s=%s\n", config.EnvPrivateKey, *privateKey)
	fmt.Println()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func withMiddleware(logger hclog.Logger, delay time.Duration, failCfg failConfig, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("request", "method", r.Method, "path", r.URL.Path, "query", r.URL.RawQuery)
		if delay > 0 {
			time.Sleep(delay)
		}
		if failCfg.rate > 0 && rand.Float64() < failCfg.rate {
			status := failCfg.code
			if status == 0 {
				status = http.StatusInternalServerError
			}
			logger.Warn("failure injected", "method", r.Method, "path", r.URL.Path, "status", status)
			http.Error(w, `{"error":"failure injected"}`, status)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func parseFailConfig(raw string) (failConfig, error) {
	if strings.TrimSpace(raw) == "" {
		return failConfig{}, nil
	}
	cfg := failConfig{code: http.StatusInternalServerError}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return failConfig{}, fmt.Errorf("invalid fail segment %q", part)
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case "rate":
			val, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return failConfig{}, err
			}
			if val < 0 || val > 1 {
				return failConfig{}, fmt.Errorf("fail rate %v outside [0,1]", val)
			}
			cfg.rate = val
		case "code":
			val, err := strconv.Atoi(value)
			if err != nil {
				return failConfig{}, err
			}
			cfg.code = val
		default:
			return failConfig{}, fmt.Errorf("unknown fail key %q", key)
		}
	}
	return cfg, nil
}
