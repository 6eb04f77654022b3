package layout

import (
	"fmt"

	"github.com/espegro/logtrail/internal/config"
	"github.com/espegro/logtrail/internal/types"
)

// Layout renders a log record into its final textual form
type Layout interface {
	Format(rec types.LogRecord) string
}

// New builds the layout described by cfg
func New(cfg config.LayoutConfig) (Layout, error) {
	switch cfg.Type {
	case "", "pattern":
		return NewPatternLayout(cfg.Pattern), nil
	case "json":
		return NewJSONLayout(), nil
	default:
		return nil, fmt.Errorf("unknown layout type %q", cfg.Type)
	}
}
