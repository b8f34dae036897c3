package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	waterworks "github.com/Adi0604/Water-Works"
)

func main() {
	flow, err := waterworks.Conf("../../configs/waterworks.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := flow.Serve(ctx); err != nil && err != context.Canceled {
		log.Fatalf("dashboard exited: %v", err)
	}
}
