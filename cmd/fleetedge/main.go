package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fleetedge/config"
	"fleetedge/engine"
	"fleetedge/messaging"
	"fleetedge/remote"
	"fleetedge/store"
	"fleetedge/syncq"
	"fleetedge/www"
)

const version = "dev"

func main() {
	configPath := flag.String("config", "fleetedge.yaml", "path to config file")
	debug := flag.Bool("debug", false, "enable debug logging")
	port := flag.Int("port", 0, "HTTP port (overrides config)")
	flag.Parse()

	if *debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *port > 0 {
		cfg.Web.Port = *port
	}

	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	api := remote.NewClient(cfg.Remote)
	eng := engine.New(cfg, db, api, nil)

	// Sync replayer: drains the durable queue against the authority.
	replayer := syncq.NewReplayer(db, api, remote.IsTransient, cfg.Sync, eng.SyncEmitter(), nil)
	eng.SetReplayer(replayer)
	replayer.Start()
	defer replayer.Stop()

	// Ops messaging: dead-letter alerts, booking status mirror, heartbeat.
	msgClient := messaging.NewClient(&cfg.Messaging)
	defer msgClient.Close()
	if err := msgClient.Connect(); err != nil {
		log.Printf("messaging connect: %v (ops events disabled)", err)
	} else {
		bridge := messaging.NewBridge(msgClient, eng.Events, cfg.NodeID(), cfg.Messaging.OpsTopic)
		defer bridge.Close()

		hb := messaging.NewHeartbeater(msgClient, db, cfg.NodeID(), cfg.DepotID, version,
			cfg.Messaging.OpsTopic, cfg.Messaging.HeartbeatInterval)
		hb.Start()
		defer hb.Stop()
	}

	router := www.NewRouter(eng, cfg)
	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
	server := &http.Server{Addr: addr, Handler: router}

	go func() {
		log.Printf("FleetEdge %s listening on %s (depot=%s)", version, addr, cfg.DepotID)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("http server shutdown: %v", err)
	}
}
