package dialect

import (
	"bytes"
	"encoding/json"
	"fmt"
)

func encodeMulti(values []any) (string, error) {
	b, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("failed to encode multivalued property: %w", err)
	}
	return string(b), nil
}

// decodeMulti keeps numbers as their literal text so that large integers and
// decimals survive the trip through JSON
func decodeMulti(raw any) ([]any, error) {
	var data []byte

	switch r := raw.(type) {
	case string:
		data = []byte(r)
	case []byte:
		data = r
	default:
		return nil, fmt.Errorf("cannot decode %T as a multivalued property", raw)
	}

	d := json.NewDecoder(bytes.NewReader(data))
	d.UseNumber()

	values := []any{}
	if err := d.Decode(&values); err != nil {
		return nil, err
	}

	for i, v := range values {
		if n, ok := v.(json.Number); ok {
			values[i] = n.String()
		}
	}

	return values, nil
}
