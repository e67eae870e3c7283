package db

import (
	"bytes"

	"github.com/goccy/go-json"
)

// encodeObject writes a compact JSON object whose members appear in
// the order given by keys.  Callers sort keys first; we never rely on
// map iteration order or on the encoder's own map handling.  Values
// that marshal themselves are written as returned.
func encodeObject(keys []string, value func(key string) interface{}) (buf []byte, err error) {
	var out bytes.Buffer
	out.WriteByte('{')
	for i, key := range keys {
		if i > 0 {
			out.WriteByte(',')
		}
		err = encodeValue(&out, key)
		if err != nil {
			return nil, err
		}
		out.WriteByte(':')
		v := value(key)
		if m, ok := v.(json.Marshaler); ok {
			buf, err = m.MarshalJSON()
			if err != nil {
				return nil, err
			}
			out.Write(buf)
			continue
		}
		err = encodeValue(&out, v)
		if err != nil {
			return nil, err
		}
	}
	out.WriteByte('}')
	return out.Bytes(), nil
}

// encodeValue appends v to out without HTML escaping and without the
// newline the encoder adds.
func encodeValue(out *bytes.Buffer, v interface{}) (err error) {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	err = enc.Encode(v)
	if err != nil {
		return
	}
	out.Write(bytes.TrimSuffix(tmp.Bytes(), []byte("\n")))
	return
}
