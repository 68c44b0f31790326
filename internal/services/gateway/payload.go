package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

type field struct {
	key   string
	value interface{}
}

// encodePayload writes identity fields first, in the given order, followed by
// the caller's fields sorted by key. Caller keys that collide with an identity
// field are dropped and reported. The result is minified JSON without HTML
// escaping; these exact bytes are hashed and transmitted.
func encodePayload(identity []field, body map[string]interface{}) ([]byte, []string, error) {
	reserved := make(map[string]struct{}, len(identity))
	for _, f := range identity {
		reserved[f.key] = struct{}{}
	}

	keys := make([]string, 0, len(body))
	var dropped []string
	for k := range body {
		if _, ok := reserved[k]; ok {
			dropped = append(dropped, k)
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	sort.Strings(dropped)

	fields := make([]field, 0, len(identity)+len(keys))
	fields = append(fields, identity...)
	for _, k := range keys {
		fields = append(fields, field{key: k, value: body[k]})
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSON(&buf, f.key); err != nil {
			return nil, nil, err
		}
		buf.WriteByte(':')
		if err := writeJSON(&buf, f.value); err != nil {
			return nil, nil, fmt.Errorf("%w: field %q: %v", ErrMalformedBody, f.key, err)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), dropped, nil
}

func writeJSON(buf *bytes.Buffer, v interface{}) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	buf.Write(bytes.TrimRight(tmp.Bytes(), "\n"))
	return nil
}
