package labtex

import (
	"encoding/json"
	"fmt"
)

// jsonScan decodes a JSON document held as bytes or a string into dst.
// A nil source or a JSON null leaves dst untouched.
func jsonScan[T any](src interface{}, dst *T) error {
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	case json.RawMessage:
		data = v
	case nil:
		return nil
	default:
		return fmt.Errorf("cannot scan %T into %T", src, dst)
	}
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	return json.Unmarshal(data, dst)
}
