package output

import (
	"errors"

	"github.com/espegro/logtrail/internal/metrics"
	"github.com/espegro/logtrail/internal/types"
)

// Fanout sends every record to all of its appenders
type Fanout struct {
	appenders []Appender
}

// NewFanout creates a fan-out over appenders, in order
func NewFanout(appenders ...Appender) *Fanout {
	return &Fanout{appenders: appenders}
}

// Append writes rec to every appender; one failure does not stop the rest
func (f *Fanout) Append(rec types.LogRecord) error {
	if rec.Error.IsAggregate() {
		metrics.AggregateErrorsFlattened.Inc()
	}

	var errs []error
	for _, a := range f.appenders {
		if err := a.Append(rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every appender
func (f *Fanout) Close() error {
	var errs []error
	for _, a := range f.appenders {
		if err := a.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
