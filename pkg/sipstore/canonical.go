package sipstore

import (
	"bytes"
	"encoding/json"
)

// CanonicalJSON produces a byte-stable dump: the value is round-tripped
// through generic maps so object keys come out sorted, with HTML escaping
// off so the bytes match the stored metadata exactly.
func CanonicalJSON(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(generic); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
