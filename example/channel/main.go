package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"sync"
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

	sink, events, closeEvents := waterworks.NewChannelSink("fanout", 32)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		forward("console", events)
	}()

	sum, err := flow.Replay(ctx, "old-rph-report", sink)
	closeEvents()
	wg.Wait()
	if err != nil && err != context.Canceled {
		log.Fatalf("replay: %v", err)
	}
	fmt.Printf("done: %d steps, %d missing\n", sum.Steps, sum.Missing)
}

func forward(name string, events <-chan waterworks.Event) {
	for ev := range events {
		fmt.Printf("[%s] %s\n", name, waterworks.FormatEvent(ev))
	}
}
