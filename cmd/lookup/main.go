package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"grouporder-workers/config"
	"grouporder-workers/internal/app"
	"grouporder-workers/pkg/logger"
)

func main() {
	link := flag.String("link", "", "group order share link")
	sid := flag.String("sid", "", "session token (defaults to the stored credential)")
	check := flag.Bool("check", false, "only test whether the credential is accepted")
	flag.Parse()

	logger.Init()
	// stdout carries the order JSON
	log.SetOutput(os.Stderr)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	service, creds := app.NewLookupService(cfg)
	ctx := context.Background()

	if *check {
		if *sid != "" {
			creds.Update(*sid)
		}
		if !creds.TestAuth(ctx) {
			log.Println("✗ Credential rejected")
			os.Exit(1)
		}
		log.Println("✓ Credential accepted")
		return
	}

	if *link == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.UberEats.LookupTimeout)
	defer cancel()

	order := service.GetOrderDetails(ctx, *link, *sid)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(order); err != nil {
		log.Fatalf("Failed to encode order: %v", err)
	}
	if !order.Success {
		os.Exit(1)
	}
}
