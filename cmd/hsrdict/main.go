package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/mahesh-hegde/hsrdict/app/config"
	"github.com/mahesh-hegde/hsrdict/app/dictionary"
	"github.com/mahesh-hegde/hsrdict/app/docstore"
	"github.com/mahesh-hegde/hsrdict/app/ingest"
	"github.com/mahesh-hegde/hsrdict/app/server"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "server":
		runServer()
	case "refresh":
		runRefresh()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage: hsrdict <command> [options]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  server        Start the dictionary server")
	fmt.Fprintln(os.Stderr, "  refresh       Reload all translations from the source and exit")
}

func setupLogger(w io.Writer, conf config.LogConfig) {
	level, err := conf.SlogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if conf.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// loadConfig reads the config and opens the store, exiting on failure.
func loadConfig(dataDir string) (*config.HsrDictConfig, dictionary.Store) {
	if dataDir == "" {
		slog.Error("--data-dir not provided, stopping")
		os.Exit(1)
	}
	conf, err := config.Load(dataDir)
	if err != nil {
		slog.Error("error while reading config", "err", err)
		os.Exit(1)
	}
	setupLogger(os.Stderr, conf.Log)

	store, err := docstore.Open(context.Background(), conf)
	if err != nil {
		slog.Error("error while initializing DB", "store", conf.Store.Backend, "err", err)
		os.Exit(1)
	}
	return conf, store
}

func refresh(conf *config.HsrDictConfig, store dictionary.Store) (ingest.RefreshReport, error) {
	catalog, err := conf.Catalog()
	if err != nil {
		return ingest.RefreshReport{}, err
	}
	source := ingest.NewHTTPSource(conf.SourceTimeout())
	pipeline, err := ingest.NewPipeline(store, catalog, source, conf.Source.BatchSize)
	if err != nil {
		return ingest.RefreshReport{}, err
	}
	return pipeline.Refresh(context.Background())
}

func runRefresh() {
	flags := pflag.NewFlagSet("refresh", pflag.ExitOnError)
	var dataDir string
	flags.StringVarP(&dataDir, "data-dir", "d", "", "data directory with config.json and local stores")
	flags.Parse(os.Args[2:])

	conf, store := loadConfig(dataDir)
	defer store.Close()

	report, err := refresh(conf, store)
	if err != nil {
		slog.Error("refresh failed", "err", err)
		store.Close()
		os.Exit(1)
	}
	slog.Info("refresh complete",
		"inserted", report.Inserted,
		"duplicates", report.DuplicateVocabularies,
		"deleted_rows", report.DeletedRows,
		"duration", report.Duration)
}

func runServer() {
	flags := pflag.NewFlagSet("server", pflag.ExitOnError)
	var dataDir string
	var serverConf config.ServerRuntimeConfig
	flags.StringVarP(&serverConf.Addr, "address", "a", "localhost", "Server address to bind")
	flags.IntVarP(&serverConf.Port, "port", "p", 8080, "Server port to bind")
	flags.StringVarP(&dataDir, "data-dir", "d", "", "data directory with config.json and local stores")
	flags.BoolVar(&serverConf.RefreshOnStart, "refresh", false, "reload all translations before serving")
	flags.StringVar(&serverConf.CertDir, "cert-dir", "", "directory with fullchain.pem and privkey.pem, or the ACME cache")
	flags.BoolVar(&serverConf.AcmeEnabled, "acme", false, "obtain certificates for the configured hostnames with ACME")
	flags.IntVar(&serverConf.RateLimit, "rate-limit", 0, "requests per second allowed per client, 0 disables")
	flags.IntVar(&serverConf.GzipLevel, "gzip-level", 0, "gzip compression level, 0 disables")
	flags.BoolVar(&serverConf.BehindLoadBalancer, "behind-lb", false, "identify clients by X-Forwarded-For")
	flags.Parse(os.Args[2:])

	conf, store := loadConfig(dataDir)
	defer store.Close()

	service := dictionary.NewDictionaryService(store, conf.CacheTTL())
	if serverConf.RefreshOnStart {
		report, err := refresh(conf, store)
		if err != nil {
			slog.Error("refresh failed, serving existing data", "err", err)
		} else {
			slog.Info("refresh complete", "inserted", report.Inserted, "duplicates", report.DuplicateVocabularies)
		}
		service.FlushCache()
	}

	controller := server.NewHsrDictController(service)
	if err := server.StartServer(controller, conf, serverConf); err != nil {
		slog.Error("server stopped", "err", err)
		store.Close()
		os.Exit(1)
	}
}
