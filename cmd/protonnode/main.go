// Command protonnode runs a single Proton node from a deployment
// document: it loads the YAML schema, configures and activates the
// named node, and blocks until an interrupt or termination signal.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/clearpath-proton/proton/pkg/config"
	"github.com/clearpath-proton/proton/pkg/node"
)

func main() {
	configPath := flag.String("c", "", "deployment YAML config path")
	nodeName := flag.String("n", "", "name of this node within the config")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if *configPath == "" || *nodeName == "" {
		fmt.Fprintln(os.Stderr, "usage: protonnode -c <config.yaml> -n <node-name>")
		os.Exit(1)
	}

	doc, err := config.LoadFile(*configPath)
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	n := node.New(*nodeName, logger)
	if err := n.Configure(doc); err != nil {
		logger.Error("failed to configure node", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := n.Activate(ctx); err != nil {
		logger.Error("failed to activate node", "err", err)
		os.Exit(1)
	}
	logger.Info("node running", "name", *nodeName)

	<-ctx.Done()
	logger.Info("shutting down")
	n.Stop()
	n.Wait()
}
