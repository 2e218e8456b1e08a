package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"inkwell/internal/app/bootstrap"
)

// Worker process entrypoint.
// Data flow:
// 1) Load config for SERVICE_NAME.
// 2) Build app wiring.
// 3) Run event consumers and the outbox relay until SIGINT/SIGTERM, then
// let in-flight handlers finish.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.BuildWorker()
	if err != nil {
		log.Fatalf("bootstrap worker failed: %v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("worker shutdown close failed: %v", err)
		}
	}()

	if err := app.Run(ctx); err != nil {
		log.Printf("inkwell worker stopped with error: %v", err)
	}
}
