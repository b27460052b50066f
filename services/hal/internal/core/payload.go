package core

import (
	"encoding/json"

	"dshot-go/errcode"
)

// As[T] asserts a payload to the concrete value type T.
// Pointers are not accepted. A nil payload is treated as the zero value of T.
// JSON-like payloads (maps from the config service, raw bytes) are decoded
// into T.
func As[T any](v any) (T, errcode.Code) {
	var zero T
	if v == nil {
		return zero, ""
	}
	if t, ok := v.(T); ok {
		return t, ""
	}
	switch v.(type) {
	case map[string]any, []byte, string, []any:
		var t T
		if err := Decode(v, &t); err != nil {
			return zero, errcode.InvalidPayload
		}
		return t, ""
	}
	return zero, errcode.InvalidPayload
}

// Decode fills dst from src: raw JSON bytes or text are unmarshalled, any
// other value is round-tripped through JSON.
func Decode[T any](src any, dst *T) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		return json.Unmarshal(b, dst)
	}
}
