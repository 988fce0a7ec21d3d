package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tohur/webmail/internal/api"
	"github.com/tohur/webmail/internal/config"
	"github.com/tohur/webmail/internal/mail"
	"github.com/tohur/webmail/internal/session"
	"github.com/tohur/webmail/internal/store"
	"github.com/tohur/webmail/internal/webmail"
)

func main() {
	configPath := flag.String("config", config.DefaultConfigPath(), "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("webmaild: loading config: %v", err)
	}
	if cfg.Mail.Host == "" {
		log.Fatalf("webmaild: no mail server configured; set mail.host in %s", *configPath)
	}

	identities, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("webmaild: opening identity store: %v", err)
	}
	defer func() {
		if err := identities.Close(); err != nil {
			log.Printf("webmaild: closing identity store: %v", err)
		}
	}()

	var codec *session.TokenCodec
	if cfg.Session.Backend == "token" {
		codec = session.NewTokenCodec(cfg.Session.Secret, "webmaild")
	}

	connector := mail.NewConnector()
	sessions := session.NewManager(
		identities,
		session.NewMemoryStore(),
		connector,
		cfg.Mail,
		codec,
		cfg.Session.TTL(),
	)
	svc := webmail.NewService(sessions, identities, connector, cfg.Mail, cfg.MessageLimit)

	server, err := api.New(svc, cfg.HTTP)
	if err != nil {
		log.Fatalf("webmaild: creating api server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("webmaild: serving mailbox for %s", cfg.Mail.Addr())
	if err := server.Start(ctx); err != nil && err != http.ErrServerClosed {
		log.Fatalf("webmaild: server failed: %v", err)
	}
}
