package server

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// flexBool decodes any JSON value using loose truthiness: booleans as is,
// strings are true unless empty, "false" or "0", numbers are true unless zero,
// null is false. Arrays and objects are true.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")), bytes.Equal(data, []byte("false")):
		*b = false
	case bytes.Equal(data, []byte("true")):
		*b = true
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*b = flexBool(s != "" && s != "false" && s != "0")
	case len(data) > 0 && (data[0] == '[' || data[0] == '{'):
		*b = true
	default:
		f, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return err
		}
		*b = f != 0
	}
	return nil
}
