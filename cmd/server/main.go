package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/benthanh-pos/api/internal/config"
	"github.com/benthanh-pos/api/internal/ledger"
	"github.com/benthanh-pos/api/internal/notify"
	"github.com/benthanh-pos/api/internal/router"
	"github.com/benthanh-pos/api/internal/storage"
	"github.com/benthanh-pos/api/internal/ws"
)

func main() {
	cfg := config.Load()

	pool, err := storage.Connect(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer pool.Close()

	hub := ws.NewHub()
	go hub.Run()

	// Notifications are mirrored to every connected terminal as they post.
	center := notify.NewCenter(notify.DefaultTTL)
	center.OnPost(func(n notify.Notification) {
		hub.Broadcast(ws.NewEvent(ws.EventNotification, n))
	})

	led := ledger.New()

	r := router.New(cfg, pool, hub, center, led)

	log.Printf("Starting server on :%s", cfg.Port)
	if err := http.ListenAndServe(fmt.Sprintf(":%s", cfg.Port), r); err != nil {
		log.Fatal(err)
	}
}
