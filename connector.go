package taphubspot

import (
	"context"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/datazip-inc/tap-hubspot/drivers/abstract"
	"github.com/datazip-inc/tap-hubspot/logger"
	"github.com/datazip-inc/tap-hubspot/protocol"
)

// RegisterDriver runs the command line of a tap around driver and exits
func RegisterDriver(driver abstract.DriverInterface) {
	defer func() {
		if r := recover(); r != nil {
			logger.Fatalf("panic recovered: %v\n%s", r, debug.Stack())
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := protocol.CreateRootCommand(driver).ExecuteContext(ctx)
	stop()
	if err != nil {
		logger.Fatal(err)
	}

	os.Exit(0)
}
