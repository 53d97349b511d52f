package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/atinyakov/go-shortlinks/internal/config"
	"github.com/atinyakov/go-shortlinks/internal/logger"
)

var buildVersion string
var buildDate string
var buildCommit string

func printBuildInfo(w io.Writer) {
	orNA := func(s string) string {
		if s == "" {
			return "N/A"
		}
		return s
	}

	fmt.Fprintf(w, "Build version: %s\n", orNA(buildVersion))
	fmt.Fprintf(w, "Build date: %s\n", orNA(buildDate))
	fmt.Fprintf(w, "Build commit: %s\n", orNA(buildCommit))
}

func main() {
	options, err := config.Parse(os.Args[1:])
	if err != nil {
		panic(err)
	}

	printBuildInfo(os.Stdout)

	log := logger.New()
	if err := log.Init(options.LogLevel); err != nil {
		panic(err)
	}
	defer func() {
		_ = log.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	a, err := newApp(ctx, options, log.Log)
	if err != nil {
		log.Log.Fatal("Cannot start", zap.Error(err))
	}
	defer a.Close()

	if err := a.Run(ctx); err != nil {
		log.Log.Error("Server stopped with error", zap.Error(err))
	}
}
