package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/lab1702/jsjoust-server/server"
	"github.com/spf13/cobra"
)

func main() {
	log.SetFlags(0)
	cfg := &Config{}
	cobra.CheckErr(newCmd(cfg).Execute())
}

// Serve wires a Settings-backed Server onto an httprouter mux and runs it
// until the process receives SIGINT/SIGTERM, mirroring the teacher's
// main()'s graceful-shutdown shape.
func Serve(ctx context.Context, cfg *Config) error {
	logFlags := log.LstdFlags
	if cfg.verbose {
		logFlags |= log.Lmicroseconds | log.Lshortfile
	}
	logger := log.New(os.Stdout, "", logFlags)
	logger.Printf("starting jsjoust-server on %s:%d", cfg.bind, cfg.port)

	settings := server.LoadSettings(cfg.settingsFile)
	settings.TickRateMs = cfg.tickRateMs
	settings.CountdownSeconds = cfg.countdownSeconds
	settings.GoDelayMs = cfg.goDelayMs
	settings.DisconnectGraceMs = cfg.disconnectGraceMs
	settings.ReadyDelayMs = cfg.readyDelayMs

	gameServer := server.NewServer(settings, cfg.settingsFile, logger)
	go gameServer.Run()

	mux := gameServer.Routes()
	mux.GET("/health", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	addr := cfg.bind + ":" + strconv.Itoa(cfg.port)
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server failed to start: %v", err)
		}
	}()
	logger.Printf("server running at http://%s", addr)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Printf("shutting down server (signal: %v)...", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	gameServer.Shutdown()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("server shutdown error: %v", err)
	}

	logger.Println("server stopped")
	return nil
}
