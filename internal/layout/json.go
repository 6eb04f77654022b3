package layout

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/espegro/logtrail/internal/types"
)

// reserved keys are never overwritten by meta
var reservedKeys = map[string]bool{
	"@timestamp": true,
	"log":        true,
	"message":    true,
	"process":    true,
	"error":      true,
}

// JSONLayout renders one ECS-style JSON object per record
type JSONLayout struct{}

// NewJSONLayout creates a JSON layout
func NewJSONLayout() *JSONLayout {
	return &JSONLayout{}
}

// Format renders rec as a single line of JSON
func (l *JSONLayout) Format(rec types.LogRecord) string {
	output := make(map[string]interface{}, 5+len(rec.Meta))
	for k, v := range rec.Meta {
		if !reservedKeys[k] {
			output[k] = v
		}
	}

	output["@timestamp"] = rec.Timestamp.In(time.UTC).Format(iso8601)
	output["log"] = map[string]interface{}{
		"level":  rec.Level.String(),
		"logger": rec.Context,
	}
	output["message"] = rec.Message
	output["process"] = map[string]interface{}{
		"pid": rec.PID,
	}

	if rec.Error != nil {
		output["error"] = map[string]interface{}{
			"message":     rec.Error.Message,
			"type":        errorType(rec.Error),
			"stack_trace": FormatError(rec.Error),
		}
	}

	data, err := encodeJSON(output)
	if err != nil {
		// meta held something encoding/json cannot represent
		output = map[string]interface{}{
			"@timestamp": output["@timestamp"],
			"log":        output["log"],
			"message":    rec.Message,
			"process":    output["process"],
			"error":      output["error"],
			"meta_error": err.Error(),
		}
		data, _ = encodeJSON(output)
	}
	return string(data)
}

func errorType(err *types.ErrorInfo) string {
	if err.IsAggregate() {
		return "AggregateError"
	}
	return "Error"
}

// marshalMeta encodes meta as compact JSON; map keys come out sorted
func marshalMeta(meta map[string]interface{}) []byte {
	data, err := encodeJSON(meta)
	if err != nil {
		return []byte(fmt.Sprintf("%v", meta))
	}
	return data
}

// encodeJSON is json.Marshal without HTML escaping or trailing newline
func encodeJSON(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
