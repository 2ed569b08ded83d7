package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/okian/innings/internal/cli"
	"github.com/okian/innings/pkg/logger"
)

func main() {
	// System metrics are collected by the service itself.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := cli.NewRootCommand().ExecuteContext(ctx)
	stop()
	_ = logger.Sync()

	if err != nil {
		_, _ = os.Stderr.WriteString("innings: " + err.Error() + "\n")
	}
	os.Exit(cli.GetExitCode(err))
}
