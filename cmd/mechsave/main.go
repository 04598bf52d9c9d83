// mechsave inspects and manages Tyrannosaurus Mechs save slots. Build:
//
//	go build -o mechsave ./cmd/mechsave
//
// Usage:
//
//	mechsave list
//	mechsave create --label "Jungle - gate 2" --scene Jungle --checkpoint gate-2
//	mechsave --backend sqlite orphans --purge
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/roach88/mechsave/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := cli.NewRootCommand()
	err := cmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	stop()
	os.Exit(cli.GetExitCode(err))
}
