package main

import (
    "context"
    "errors"
    "flag"
    "io"
    "log"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/espegro/logtrail/internal/config"
    "github.com/espegro/logtrail/internal/layout"
    "github.com/espegro/logtrail/internal/logger"
    "github.com/espegro/logtrail/internal/metrics"
    "github.com/espegro/logtrail/internal/migrate"
    "github.com/espegro/logtrail/internal/output"
    "github.com/espegro/logtrail/internal/types"
)

var (
    configPath = flag.String("config", "/etc/logtrail/logtrail.yaml", "Path to configuration file")
    inputPath  = flag.String("input", "-", "NDJSON input file, - for stdin")
    layoutType = flag.String("layout", "", "Override layout type (pattern, json)")
    pattern    = flag.String("pattern", "", "Override pattern for the pattern layout")
    debug      = flag.Bool("debug", false, "Enable debug logging for logtrail itself")
)

func main() {
    flag.Parse()

    log.Println("logtrail - Starting up...")

    // Load configuration
    cfg, err := loadConfiguration(*configPath)
    if err != nil {
        log.Fatalf("Failed to load configuration: %v", err)
    }
    applyOverrides(cfg)
    if err := cfg.Validate(); err != nil {
        log.Fatalf("Invalid configuration: %v", err)
    }

    // Own diagnostics go to stderr so they never mix with rendered records
    diagLevel := "info"
    if *debug {
        diagLevel = "debug"
    }
    logger.Init(diagLevel, "logtrail", logger.NewWriterAppender(os.Stderr, layout.NewPatternLayout(layout.DefaultPattern)))
    defer logger.Close()

    // Create the record appenders based on configuration
    out, err := output.FromConfig(cfg.Logging, func(reason string, total uint64) {
        switch reason {
        case output.DropRateLimited:
            logger.Warn("Rate limit of %d records/s exceeded (total dropped: %d)",
                cfg.Logging.RateLimit.MaxPerSec, total)
        default:
            logger.Warn("Async queue full, dropping records (total dropped: %d, policy: %s)",
                total, cfg.Logging.Async.DropPolicy)
        }
    })
    if err != nil {
        log.Fatalf("Failed to create appenders: %v", err)
    }
    sink := logger.New(cfg.Logging.Context, types.ParseLevel(cfg.Logging.Level), out)
    logger.Info("Layout: %s, level: %s", layoutName(cfg.Logging.Layout), cfg.Logging.Level)

    // Start metrics server if enabled
    if cfg.Metrics.Enabled {
        server := metrics.NewServer(cfg.Metrics.Port)
        if err := server.Start(); err != nil {
            log.Fatalf("Failed to start metrics server: %v", err)
        }
        defer server.Stop()
    }

    // Meta schema migrations
    registry := migrate.NewRegistry(cfg.Migrations.CacheSize)
    if err := registerSchemaMigrations(registry); err != nil {
        log.Fatalf("Failed to register schema migrations: %v", err)
    }
    logger.Debug("Schema migrations: %v", registry.Versions())

    in, err := openInput(*inputPath)
    if err != nil {
        log.Fatalf("Failed to open input: %v", err)
    }
    defer in.Close()

    // The first signal stops reading and flushes the appenders; a second one
    // kills the process if that flush hangs
    ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
    defer stop()
    go func() {
        <-ctx.Done()
        stop()
    }()

    p := &pipeline{
        sink:       sink,
        level:      types.ParseLevel(cfg.Logging.Level),
        registry:   registry,
        log:        logger.Get("pipeline"),
        bufferSize: cfg.Logging.Async.BufferSize,
    }

    start := time.Now()
    if err := p.run(ctx, in); err != nil {
        if errors.Is(err, context.Canceled) {
            logger.Info("Shutting down...")
        } else {
            logger.ErrorErr(types.WithStack(err), "Reading input failed")
        }
    }

    // Flush and close appenders before printing final stats
    if err := sink.Close(); err != nil {
        logger.ErrorErr(err, "Closing appenders failed")
    }

    stats := p.snapshot()
    logger.Info("Final stats: received=%d written=%d invalid=%d filtered=%d migrated=%d (%v)",
        stats.RecordsReceived, stats.RecordsWritten, stats.RecordsInvalid,
        stats.RecordsFiltered, stats.RecordsMigrated, time.Since(start).Round(time.Millisecond))
}

func loadConfiguration(path string) (*config.Config, error) {
    // Try to load from file
    cfg, err := config.LoadConfig(path)
    if err != nil {
        if errors.Is(err, os.ErrNotExist) {
            log.Printf("Config file not found at %s, using defaults", path)
            return config.DefaultConfig(), nil
        }
        return nil, err
    }

    return cfg, nil
}

func applyOverrides(cfg *config.Config) {
    if *layoutType != "" {
        cfg.Logging.Layout.Type = *layoutType
    }
    if *pattern != "" {
        cfg.Logging.Layout.Pattern = *pattern
    }
}

func layoutName(cfg config.LayoutConfig) string {
    if cfg.Type == "json" {
        return "json"
    }
    return "pattern " + cfg.Pattern
}

func openInput(path string) (io.ReadCloser, error) {
    if path == "" || path == "-" {
        return io.NopCloser(os.Stdin), nil
    }
    return os.Open(path)
}
