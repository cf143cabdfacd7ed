package main

import (
	"context"
	"log"

	"github.com/candelhealth/srbridge/internal/service"
)

func main() {
	ctx := context.Background()

	svc, err := service.NewSRBridgeService()
	if err != nil {
		log.Fatalf("init: %v", err)
	}

	if err := svc.Start(ctx); err != nil {
		log.Fatalf("run: %v", err)
	}
}
