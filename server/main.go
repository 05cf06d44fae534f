// The goparley chat server.
package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"gopkg.in/op/go-logging.v1"

	"goparley/internal/instrument"
	"goparley/internal/log"
	"goparley/internal/registry"
	"goparley/internal/session"
	"goparley/internal/userdb"
	"goparley/internal/userdb/boltdb"
	"goparley/internal/userdb/textdb"
	"goparley/internal/worker"
	"goparley/server/config"
)

type listener struct {
	worker.Worker

	log     *logging.Logger
	backend *log.Backend

	l     net.Listener
	reg   *registry.Registry
	users userdb.UserDB
}

func (l *listener) Halt() {
	l.l.Close()
	l.Worker.Halt()
}

func (l *listener) worker() {
	l.log.Noticef("listening on: %v", l.l.Addr())
	defer l.log.Noticef("stopped listening on: %v", l.l.Addr())
	for {
		conn, err := l.l.Accept()
		if err != nil {
			select {
			case <-l.HaltCh():
				return
			default:
			}
			if e, ok := err.(net.Error); ok && !e.Temporary() {
				l.log.Errorf("accept failure: %v", err)
				return
			}
			continue
		}
		l.log.Debugf("accepted connection: %v", conn.RemoteAddr())
		go session.New(conn, l.reg, l.users, l.backend).Run()
	}
}

func newListener(addr string, reg *registry.Registry, users userdb.UserDB, backend *log.Backend) (*listener, error) {
	l := &listener{
		log:     backend.GetLogger("listener"),
		backend: backend,
		reg:     reg,
		users:   users,
	}
	var err error
	l.l, err = net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	l.Go(l.worker)
	return l, nil
}

func openUserDB(cfg *config.Config, backend *log.Backend) (userdb.UserDB, error) {
	switch cfg.UserDB.Backend {
	case config.BackendText:
		return textdb.New(cfg.UserDB.UsersFile, backend.GetLogger("userdb"))
	case config.BackendBolt:
		return boltdb.New(cfg.UserDB.BoltFile)
	default:
		return nil, fmt.Errorf("unknown userdb backend: %s", cfg.UserDB.Backend)
	}
}

func main() {
	cfgFile := flag.String("f", "", "path to the config file")
	listenAddr := flag.String("listen", "", "override the listen address")
	flag.Parse()

	var cfg *config.Config
	var err error
	if *cfgFile != "" {
		cfg, err = config.LoadFile(*cfgFile)
	} else {
		cfg, err = config.Default()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *listenAddr != "" {
		cfg.Server.Address = *listenAddr
	}

	backend, err := log.New(cfg.Logging.File, cfg.Logging.Level, cfg.Logging.Disable)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	serverLog := backend.GetLogger("server")

	users, err := openUserDB(cfg, backend)
	if err != nil {
		serverLog.Errorf("failed to open user database: %v", err)
		os.Exit(1)
	}
	defer users.Close()

	if cfg.Metrics.Enable {
		instrument.Init(cfg.Metrics.Address)
		serverLog.Noticef("metrics on %s", cfg.Metrics.Address)
	}

	reg := registry.New(backend.GetLogger("registry"))
	l, err := newListener(cfg.Server.Address, reg, users, backend)
	if err != nil {
		serverLog.Errorf("failed to start listener: %v", err)
		os.Exit(1)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh
	serverLog.Noticef("received %v, shutting down", sig)
	l.Halt()
}
