package main

import (
    "bufio"
    "bytes"
    "context"
    "io"
    "strconv"
    "sync"
    "sync/atomic"
    "time"

    "github.com/espegro/logtrail/internal/logger"
    "github.com/espegro/logtrail/internal/metrics"
    "github.com/espegro/logtrail/internal/migrate"
    "github.com/espegro/logtrail/internal/types"
)

const maxLineSize = 1024 * 1024

// Stats tracks record processing statistics
type Stats struct {
    RecordsReceived uint64
    RecordsWritten  uint64
    RecordsInvalid  uint64
    RecordsFiltered uint64
    RecordsMigrated uint64
}

// pipeline decodes NDJSON records and replays them through sink
type pipeline struct {
    sink       *logger.Logger
    level      types.Level
    registry   *migrate.Registry
    log        *logger.Logger
    bufferSize int
    stats      Stats
}

// run reads r until EOF or cancellation; every decoded record is written
// before it returns
func (p *pipeline) run(ctx context.Context, r io.Reader) error {
    bufferSize := p.bufferSize
    if bufferSize <= 0 {
        bufferSize = 1000 // Default fallback
    }
    records := make(chan types.LogRecord, bufferSize)

    var wg sync.WaitGroup
    wg.Add(1)
    go func() {
        defer wg.Done()
        for rec := range records {
            p.sink.Write(rec)
            atomic.AddUint64(&p.stats.RecordsWritten, 1)
        }
    }()

    err := p.read(ctx, r, records)
    close(records)
    wg.Wait()
    return err
}

// read hands decoded records to records. Lines are scanned on their own
// goroutine so cancellation is seen even while r blocks (an idle terminal);
// that goroutine ends with the next line or when r is closed.
func (p *pipeline) read(ctx context.Context, r io.Reader, records chan<- types.LogRecord) error {
    lines := make(chan []byte)
    scanErr := make(chan error, 1)
    go scanLines(ctx, r, lines, scanErr)

    lineNo := 0
    for {
        var data []byte
        select {
        case <-ctx.Done():
            return ctx.Err()
        case line, ok := <-lines:
            if !ok {
                return <-scanErr
            }
            data = line
        }
        if err := ctx.Err(); err != nil {
            return err
        }

        lineNo++
        data = bytes.TrimSpace(data)
        if len(data) == 0 {
            continue
        }

        atomic.AddUint64(&p.stats.RecordsReceived, 1)
        metrics.RecordsReceived.Inc()

        rec, err := types.ParseRecord(data)
        if err != nil {
            atomic.AddUint64(&p.stats.RecordsInvalid, 1)
            metrics.RecordsInvalid.Inc()
            p.log.Warn("Skipping line %d: %v", lineNo, err)
            continue
        }

        if rec.Level < p.level {
            atomic.AddUint64(&p.stats.RecordsFiltered, 1)
            continue
        }

        if rec.Timestamp.IsZero() {
            rec.Timestamp = time.Now()
        }

        if meta, ok := p.upgradeMeta(rec.Meta); ok {
            rec.Meta = meta
            atomic.AddUint64(&p.stats.RecordsMigrated, 1)
        }

        select {
        case records <- rec:
        case <-ctx.Done():
            return ctx.Err()
        }
    }
}

// scanLines sends a copy of every line of r, then reports exactly one error
// (nil at EOF) and closes lines. It stops early when ctx is done.
func scanLines(ctx context.Context, r io.Reader, lines chan<- []byte, scanErr chan<- error) {
    defer close(lines)

    scanner := bufio.NewScanner(r)
    scanner.Buffer(make([]byte, 64*1024), maxLineSize)

    for scanner.Scan() {
        line := append([]byte(nil), scanner.Bytes()...)
        select {
        case lines <- line:
        case <-ctx.Done():
            scanErr <- ctx.Err()
            return
        }
    }
    scanErr <- scanner.Err()
}

// upgradeMeta migrates meta from its schema_version to the latest one
func (p *pipeline) upgradeMeta(meta map[string]interface{}) (map[string]interface{}, bool) {
    if len(meta) == 0 || p.registry == nil {
        return meta, false
    }

    from, ok := schemaVersion(meta)
    if !ok {
        p.log.Debug("Leaving record meta unmigrated: unsupported %s %v", schemaVersionKey, meta[schemaVersionKey])
        return meta, false
    }

    state, at, err := p.registry.Migrate(migrate.State(meta), from)
    if err != nil {
        p.log.Debug("Leaving record meta unmigrated: %v", err)
        return meta, false
    }
    if at == from {
        return meta, false
    }

    state[schemaVersionKey] = at
    return map[string]interface{}(state), true
}

// schemaVersion reads the version meta was written with. A missing key means
// the base version; numbers such as 2 or 1.1 are read as their text.
func schemaVersion(meta map[string]interface{}) (string, bool) {
    switch v := meta[schemaVersionKey].(type) {
    case nil:
        return baseSchemaVersion, true
    case string:
        if v == "" {
            return baseSchemaVersion, true
        }
        return v, true
    case float64:
        if v < 0 {
            return "", false
        }
        return strconv.FormatFloat(v, 'f', -1, 64), true
    default:
        return "", false
    }
}

// snapshot reads the counters atomically
func (p *pipeline) snapshot() Stats {
    return Stats{
        RecordsReceived: atomic.LoadUint64(&p.stats.RecordsReceived),
        RecordsWritten:  atomic.LoadUint64(&p.stats.RecordsWritten),
        RecordsInvalid:  atomic.LoadUint64(&p.stats.RecordsInvalid),
        RecordsFiltered: atomic.LoadUint64(&p.stats.RecordsFiltered),
        RecordsMigrated: atomic.LoadUint64(&p.stats.RecordsMigrated),
    }
}
