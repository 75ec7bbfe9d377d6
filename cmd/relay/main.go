package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"voxeledit.ai/internal/config"
	"voxeledit.ai/internal/persistence/indexdb"
	persistlog "voxeledit.ai/internal/persistence/log"
	"voxeledit.ai/internal/persistence/snapshot"
	"voxeledit.ai/internal/relay"
	"voxeledit.ai/internal/transport/ws"
)

func main() {
	var (
		configPath = flag.String("config", "./configs/editor.yaml", "editor config path")
		addr       = flag.String("addr", "", "http listen address (overrides relay.addr)")
		dataDir    = flag.String("data", "", "runtime data directory (overrides relay.data_dir)")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite change history")
		snapPath   = flag.String("snapshot", "", "path to snapshot to load (optional)")
		loadLatest = flag.Bool("load_latest_snapshot", true, "load latest snapshot from the data dir when -snapshot is empty")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[relay] ", log.LstdFlags|log.Lmicroseconds)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if *addr != "" {
		cfg.Relay.Addr = *addr
	}
	if *dataDir != "" {
		cfg.Relay.DataDir = *dataDir
	}
	if *disableDB {
		cfg.Relay.DisableDB = true
	}

	journal := persistlog.NewJournal(cfg.Relay.DataDir)
	defer journal.Close()

	var history relay.History
	var idx *indexdb.SQLiteIndex
	if !cfg.Relay.DisableDB {
		idx, err = indexdb.OpenSQLite(filepath.Join(cfg.Relay.DataDir, "index", "history.sqlite"), 0)
		if err != nil {
			logger.Fatalf("open index: %v", err)
		}
		defer idx.Close()
		history = idx
	}

	rcfg := cfg.RelayConfig()
	r := relay.New(rcfg, history, journal, logger)
	if *snapPath == "" && *loadLatest {
		*snapPath = snapshot.Latest(rcfg.SnapshotDir)
	}
	if *snapPath != "" {
		snap, err := snapshot.ReadSnapshot(*snapPath)
		if err != nil {
			logger.Fatalf("read snapshot: %v", err)
		}
		if err := r.ImportSnapshot(snap); err != nil {
			logger.Fatalf("import snapshot: %v", err)
		}
		logger.Printf("restored snapshot tick=%d chunks=%d actors=%d backlog=%d", snap.Header.Tick, len(snap.Chunks), len(snap.Actors), len(snap.Backlog))
	}

	ctx, cancel := signalContext()
	defer cancel()

	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		if err := r.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("relay stopped: %v", err)
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusOK)
		_, _ = rw.Write([]byte("ok\n"))
	})
	mux.HandleFunc("/metrics/index", func(rw http.ResponseWriter, _ *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(idx.Stats())
	})
	mux.HandleFunc("/v1/ws", ws.NewServer(r, cfg.Relay.MaxQueue, logger).Handler())

	srv := &http.Server{
		Addr:              cfg.Relay.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s tick_rate=%dHz data=%s db=%t", cfg.Relay.Addr, cfg.TickRateHz, cfg.Relay.DataDir, !cfg.Relay.DisableDB)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
	// The journal and index close only after the last tick is written.
	<-runDone
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
