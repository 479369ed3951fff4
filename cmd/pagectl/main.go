// Command pagectl pages through a data source from the command line.
//
//	pagectl page 3 --source https://api.example.com/items --total-locator total
//	pagectl dump --config pagination.yaml
//	pagectl serve --port 8080
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
