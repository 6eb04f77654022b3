package layout

import (
	"fmt"
	"strconv"
	"time"

	"github.com/espegro/logtrail/internal/types"
)

// Conversion renders one %token of a pattern. Param is the optional
// {...} argument that follows the token, without braces.
type Conversion struct {
	Name    string
	Convert func(rec types.LogRecord, param string) string
}

// MessageConversion renders %message: the flattened error when the record
// carries one, otherwise the message, with control characters escaped.
var MessageConversion = Conversion{
	Name: "message",
	Convert: func(rec types.LogRecord, _ string) string {
		str := rec.Message
		if rec.Error != nil {
			str = FormatError(rec.Error)
		}
		return Sanitize(str)
	},
}

var LevelConversion = Conversion{
	Name: "level",
	Convert: func(rec types.LogRecord, _ string) string {
		return fmt.Sprintf("%-5s", rec.Level.String())
	},
}

var LoggerConversion = Conversion{
	Name: "logger",
	Convert: func(rec types.LogRecord, _ string) string {
		return rec.Context
	},
}

var PidConversion = Conversion{
	Name: "pid",
	Convert: func(rec types.LogRecord, _ string) string {
		return strconv.Itoa(rec.PID)
	},
}

// MetaConversion renders %meta as compact JSON, or nothing without meta
var MetaConversion = Conversion{
	Name: "meta",
	Convert: func(rec types.LogRecord, _ string) string {
		if len(rec.Meta) == 0 {
			return ""
		}
		return string(marshalMeta(rec.Meta))
	},
}

// Date formats accepted by %date{...}
const (
	DateISO8601    = "ISO8601"
	DateISO8601TZ  = "ISO8601_TZ"
	DateAbsolute   = "ABSOLUTE"
	DateUnix       = "UNIX"
	DateUnixMillis = "UNIX_MILLIS"
)

const iso8601 = "2006-01-02T15:04:05.000Z07:00"

// DateConversion renders %date, ISO8601 in UTC unless a format is given
var DateConversion = Conversion{
	Name: "date",
	Convert: func(rec types.LogRecord, param string) string {
		ts := rec.Timestamp
		switch param {
		case DateISO8601TZ:
			return ts.Local().Format(iso8601)
		case DateAbsolute:
			return ts.Local().Format("15:04:05.000")
		case DateUnix:
			return strconv.FormatInt(ts.Unix(), 10)
		case DateUnixMillis:
			return strconv.FormatInt(ts.UnixMilli(), 10)
		default:
			return ts.In(time.UTC).Format(iso8601)
		}
	},
}

// DefaultConversions are the tokens understood by NewPatternLayout
var DefaultConversions = []Conversion{
	DateConversion,
	LevelConversion,
	LoggerConversion,
	MessageConversion,
	MetaConversion,
	PidConversion,
}
