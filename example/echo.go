package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/BurntSushi/toml"

	"github.com/calyxdb/wire"
)

// config holds the demo server settings, optionally loaded from a TOML file
// passed as the first argument.
type config struct {
	Addr          string `toml:"addr"`
	MaxFrameBytes int    `toml:"max_frame_bytes"`
}

func loadConfig(path string) (config, error) {
	cfg := config{
		Addr:          "calyx://127.0.0.1:12345",
		MaxFrameBytes: 1024 * 1024,
	}
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

type echoServer struct {
	connID int64

	sync.RWMutex
	connections map[int64]*wire.Conn
}

func newHandler() *echoServer {
	return &echoServer{connections: make(map[int64]*wire.Conn)}
}

// Handle echoes every received value back to the sender. Datoms arrive as
// wire.Datom values thanks to the tagged envelope.
func (s *echoServer) Handle(conn *wire.Conn) {
	connID := atomic.AddInt64(&s.connID, 1)
	s.addConn(connID, conn)
	defer s.deleteConn(connID)

	for {
		v, err := conn.Receive()
		if err != nil {
			slog.Error("receive failed", "connID", connID, "error", err)
			return
		}
		if d, ok := v.(wire.Datom); ok {
			slog.Info("datom received", "connID", connID, "entity", d.Entity, "attribute", d.Attribute)
		}
		if err := conn.Send(v); err != nil {
			slog.Error("echo failed", "connID", connID, "error", err)
			return
		}
	}
}

func (s *echoServer) addConn(connID int64, conn *wire.Conn) {
	s.Lock()
	defer s.Unlock()

	slog.Info("add new conn", "connID", connID, "addr", conn.Addr())
	s.connections[connID] = conn
}

func (s *echoServer) deleteConn(connID int64) {
	s.Lock()
	defer s.Unlock()

	delete(s.connections, connID)
}

func main() {
	var path string
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	cfg, err := loadConfig(path)
	if err != nil {
		slog.Error("failed to load config", "path", path, "error", err)
		return
	}

	server, err := wire.New(cfg.Addr,
		wire.ServerConnOptions(wire.MaxFrameSizeOption(cfg.MaxFrameBytes)),
	)
	if err != nil {
		slog.Error("failed to create server", "error", err)
		return
	}

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		slog.Info("shutting down server...")
		cancel()
	}()

	slog.Info("server start", "addr", cfg.Addr)
	if err := server.Serve(ctx, newHandler()); err != nil {
		slog.Error("server error", "error", err)
	}
}
