package record

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformed is returned when a payload cannot be read as a collection of records.
var ErrMalformed = errors.New("malformed record payload")

// ErrMissingID is returned when a record carries no identifier.
var ErrMissingID = errors.New("record has no id")

// Record is a loosely-typed JSON object as served by the API and the snapshot file.
type Record map[string]any

// ID returns the record identifier, or nil when absent.
func (r Record) ID() any {
	return r["id"]
}

// IDString returns the identifier formatted for URLs and display.
func (r Record) IDString() string {
	return FormatID(r.ID())
}

// String returns a field as a string. Numbers are formatted, anything else yields "".
func (r Record) String(field string) string {
	switch v := r[field].(type) {
	case string:
		return v
	case float64, int, int64, json.Number:
		return FormatID(v)
	default:
		return ""
	}
}

// Strings returns a field as a string slice. A single string becomes a one-element slice.
func (r Record) Strings(field string) []string {
	switch v := r[field].(type) {
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// FormatID renders an identifier of any JSON scalar type as a string.
func FormatID(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(id), 'f', -1, 32)
	case int:
		return strconv.Itoa(id)
	case int64:
		return strconv.FormatInt(id, 10)
	case json.Number:
		return id.String()
	default:
		return fmt.Sprint(id)
	}
}

// LooseEqual compares two identifiers tolerating a numeric/string mismatch,
// so 2, 2.0 and "2" are all equal. Nil never equals anything.
func LooseEqual(a, b any) bool {
	if a == nil || b == nil {
		return false
	}
	as := strings.TrimSpace(FormatID(a))
	bs := strings.TrimSpace(FormatID(b))
	if as == "" || bs == "" {
		return false
	}
	af, aErr := strconv.ParseFloat(as, 64)
	bf, bErr := strconv.ParseFloat(bs, 64)
	if aErr == nil && bErr == nil {
		return af == bf
	}
	return as == bs
}

// FindByID returns the first record whose id loosely equals key.
func FindByID(records []Record, key any) (Record, bool) {
	for _, r := range records {
		if LooseEqual(r.ID(), key) {
			return r, true
		}
	}
	return nil, false
}

// Collection decodes a JSON array of objects. A single JSON object is read as a
// one-element collection so item endpoints and collection endpoints share a path.
func Collection(raw []byte) ([]Record, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty body", ErrMalformed)
	}

	switch trimmed[0] {
	case '[':
		var items []any
		if err := json.Unmarshal([]byte(trimmed), &items); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		out := make([]Record, 0, len(items))
		for i, item := range items {
			obj, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%w: element %d is not an object", ErrMalformed, i)
			}
			out = append(out, Record(obj))
		}
		return out, nil
	case '{':
		var obj map[string]any
		if err := json.Unmarshal([]byte(trimmed), &obj); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return []Record{obj}, nil
	default:
		return nil, fmt.Errorf("%w: expected array or object", ErrMalformed)
	}
}
