package main

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"leadscout-engine/internal/events"
	"leadscout-engine/internal/httpapi"
	"leadscout-engine/internal/poll"
)

func newServeCmd() *cobra.Command {
	var (
		addr  string
		every time.Duration
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard API, optionally running the pipeline on an interval",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(true)
			if err != nil {
				return err
			}
			defer a.Close()
			return serve(cmd.Context(), a, addr, every)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default 127.0.0.1:<app.port>)")
	cmd.Flags().DurationVar(&every, "every", 0, "run the pipeline on this interval (default run.every_minutes)")
	return cmd
}

func serve(ctx context.Context, a *app, addr string, every time.Duration) error {
	cfg := a.config()
	if addr == "" {
		addr = fmt.Sprintf("127.0.0.1:%d", cfg.App.Port)
	}
	if every == 0 && cfg.Run.EveryMinutes > 0 {
		every = time.Duration(cfg.Run.EveryMinutes) * time.Minute
	}

	hub := events.NewHub()
	runner := poll.NewRunner(a.db, a.dataDir, a.config, hub)

	api := httpapi.NewRouter(httpapi.Deps{
		Store:       a.db,
		Pipeline:    runner,
		Hub:         hub,
		EnrichCache: a.db,
		CfgVal:      &a.cfgVal,
		UserCfgPath: a.cfgPath,
		LoadCfg:     a.loadConfig,
	})

	token, err := shutdownToken(a.dataDir)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/", api)
	srv := httpapi.NewServer(addr, mux)
	mux.Handle("POST /shutdown", shutdownHandler(token, srv))

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	a.log.Info().Str("addr", "http://"+ln.Addr().String()).Str("data_dir", a.dataDir).Dur("every", every).Msg("engine listening")

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	poll.StartPoller(runCtx, runner, every)

	go func() {
		<-ctx.Done()
		shutCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		_ = srv.Shutdown(shutCtx)
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// shutdownToken is LEADSCOUT_SHUTDOWN_TOKEN or a fresh random token written
// to <dataDir>/shutdown.token for the desktop shell to read.
func shutdownToken(dataDir string) (string, error) {
	if t := strings.TrimSpace(os.Getenv("LEADSCOUT_SHUTDOWN_TOKEN")); t != "" {
		return t, nil
	}
	var b [24]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	t := hex.EncodeToString(b[:])
	if err := os.WriteFile(filepath.Join(dataDir, "shutdown.token"), []byte(t), 0o600); err != nil {
		return "", err
	}
	return t, nil
}

func shutdownHandler(token string, srv *http.Server) http.Handler {
	return httpapi.LocalOnly(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := r.Header.Get("X-Shutdown-Token")
		if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			httpapi.WriteError(w, r, http.StatusUnauthorized, "unauthorized", "bad shutdown token")
			return
		}
		httpapi.WriteJSON(w, http.StatusOK, map[string]any{"ok": true})

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
	}))
}
