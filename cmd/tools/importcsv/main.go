// Command importcsv loads a categories or items CSV straight into the database for
// one owner, bypassing the HTTP API. It shares the row rules of the API importer.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-pos/internal/catalog"
	"github.com/noah-isme/backend-pos/internal/config"
	"github.com/noah-isme/backend-pos/internal/importer"
	"github.com/noah-isme/backend-pos/internal/store"
)

func main() {
	var (
		ownerEmail = flag.String("owner", "", "email of the owner the rows belong to")
		kindName   = flag.String("kind", "items", "what the file holds: categories or items")
		path       = flag.String("file", "", "CSV file to import")
		template   = flag.Bool("template", false, "print the CSV template for -kind and exit")
		quiet      = flag.Bool("quiet", false, "suppress per-row progress")
	)
	flag.Parse()

	kind, err := importer.ParseKind(*kindName)
	if err != nil {
		log.Fatalf("kind: %v", err)
	}
	if *template {
		fmt.Print(importer.Template(kind))
		return
	}
	if strings.TrimSpace(*ownerEmail) == "" || strings.TrimSpace(*path) == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	pool, err := pgxpool.New(connectCtx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer pool.Close()
	if err := pool.Ping(connectCtx); err != nil {
		log.Fatalf("ping database: %v", err)
	}

	queries := store.New(pool)
	owner, err := queries.GetOwnerByEmail(ctx, strings.ToLower(strings.TrimSpace(*ownerEmail)))
	if errors.Is(err, store.ErrNotFound) {
		log.Fatalf("owner %s not found", *ownerEmail)
	}
	if err != nil {
		log.Fatalf("look up owner: %v", err)
	}

	raw, err := os.ReadFile(*path)
	if err != nil {
		log.Fatalf("read file: %v", err)
	}
	rows, err := importer.Parse(string(raw))
	if err != nil {
		log.Fatalf("parse csv: %v", err)
	}
	if len(rows) == 0 {
		log.Fatal("file is empty")
	}

	// no cache: the API drops its category cache on its own TTL
	svc, err := catalog.NewService(catalog.ServiceConfig{Queries: queries})
	if err != nil {
		log.Fatalf("catalog service: %v", err)
	}
	var snapshot []importer.CategoryRef
	if kind == importer.KindItems {
		if snapshot, err = svc.Snapshot(ctx, owner.ID); err != nil {
			log.Fatalf("load categories: %v", err)
		}
	}

	started := time.Now()
	res, err := importer.Run(ctx, kind, rows, snapshot, svc.Importer(owner.ID), func(current, total int) {
		if !*quiet {
			log.Printf("row %d/%d", current, total)
		}
	})
	for _, msg := range res.Errors {
		log.Print(msg)
	}
	log.Printf("%s import: %d rows, %d imported, %d failed in %s", kind, res.Total, res.Success, res.Failed, time.Since(started).Round(time.Millisecond))
	if err != nil {
		log.Fatalf("import interrupted: %v", err)
	}
	if res.Failed > 0 {
		os.Exit(1)
	}
}
