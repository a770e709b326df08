package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/sirupsen/logrus"

	"justapengu.in/lapindex"
)

var (
	configPath  string
	sessionsDir string
	outputFile  string
	pattern     string
	workers     int
	logLevel    string
	httpAddress string
	consistency bool
)

func init() {
	flag.StringVar(&configPath, "c", "./lapindex.yml", "config path")
	flag.StringVar(&sessionsDir, "dir", lapindex.DefaultSessionsDir, "directory containing session files")
	flag.StringVar(&outputFile, "out", lapindex.DefaultOutputFile, "sessions index file, bare names are written inside -dir")
	flag.StringVar(&pattern, "pattern", lapindex.DefaultPattern, "session file pattern, relative to -dir")
	flag.IntVar(&workers, "workers", 0, "files to summarize in parallel, 0 uses every CPU")
	flag.StringVar(&logLevel, "log-level", logrus.InfoLevel.String(), "debug, info, warn or error")
	flag.StringVar(&httpAddress, "addr", lapindex.DefaultHTTPAddress, "listen address for serve")
	flag.BoolVar(&consistency, "consistency", false, "add consistency_s and consistency_rating to each session")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] [build|report|serve]\n\n", os.Args[0])
		flag.PrintDefaults()
	}
}

func main() {
	flag.Parse()

	config, err := lapindex.LoadConfig(configPath)

	if err != nil {
		logrus.WithError(err).Fatal("Could not load config")
	}

	applyFlags(config)

	if err := config.Validate(); err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}

	logger, err := lapindex.NewLogger(os.Stderr, config.LogLevel)

	if err != nil {
		logrus.WithError(err).Fatal("Could not configure logging")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	builder := lapindex.NewBuilder(config, logger)

	switch command := flag.Arg(0); command {
	case "", "build":
		if _, _, err := builder.Run(ctx); err != nil {
			logger.WithError(err).Fatal("Could not build sessions index")
		}
	case "report":
		index, _, err := builder.Build(ctx)

		if err != nil {
			logger.WithError(err).Fatal("Could not build sessions index")
		}

		if err := lapindex.Report(os.Stdout, index); err != nil {
			logger.WithError(err).Fatal("Could not write report")
		}
	case "serve":
		serve(ctx, config, builder, logger)
	default:
		flag.Usage()
		os.Exit(2)
	}
}

// applyFlags copies flags given on the command line over the config file values.
func applyFlags(config *lapindex.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "dir":
			config.SessionsDir = sessionsDir
		case "out":
			config.OutputFile = outputFile
		case "pattern":
			config.Pattern = pattern
		case "workers":
			config.Workers = workers
		case "log-level":
			config.LogLevel = logLevel
		case "addr":
			config.HTTP.Address = httpAddress
		case "consistency":
			config.Consistency.Enabled = consistency
		}
	})

	config.ApplyDefaults()
}

func serve(ctx context.Context, config *lapindex.Config, builder *lapindex.Builder, logger *logrus.Logger) {
	server := lapindex.NewServer(config, builder, lapindex.NewMetrics(), logger)

	if _, err := server.Rebuild(ctx); err != nil {
		logger.WithError(err).Fatal("Could not build sessions index")
	}

	if err := server.Listen(); err != nil {
		logger.WithError(err).Fatal("Could not start HTTP server")
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)

	<-c

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Could not stop HTTP server")
	}

	logger.Infof("Server stopped. Exiting")
}
