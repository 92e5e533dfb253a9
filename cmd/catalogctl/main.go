package main

import (
	"context"
	"os/signal"
	"syscall"

	"photo-catalog/internal/startup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		startup.LogFatal("%v", err)
	}
}
