package savedata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"time"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces canonical JSON for lexicon documents.
//
// Differences from json.Marshal:
//  1. Object keys sorted by UTF-16 code units (not UTF-8 bytes)
//  2. No HTML escaping (< > & are NOT escaped)
//  3. Strings are NFC normalized
//  4. No floats and no null (returns error)
//
// Supported inputs: string, int, int64, bool, []any, map[string]any.
func MarshalCanonical(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		return fmt.Errorf("null is forbidden in canonical JSON")
	case string:
		return writeCanonicalString(buf, val)
	case int:
		fmt.Fprintf(buf, "%d", val)
	case int64:
		fmt.Fprintf(buf, "%d", val)
	case bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		slices.SortFunc(keys, compareUTF16)

		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonicalString(buf, k); err != nil {
				return fmt.Errorf("key %q: %w", k, err)
			}
			buf.WriteByte(':')
			if err := writeCanonical(buf, val[k]); err != nil {
				return fmt.Errorf("value for key %q: %w", k, err)
			}
		}
		buf.WriteByte('}')
	case float32, float64:
		return fmt.Errorf("floats are forbidden in canonical JSON: %v", val)
	default:
		return fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
	return nil
}

// writeCanonicalString writes an NFC-normalized JSON string without HTML escaping.
func writeCanonicalString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return err
	}
	// json.Encoder adds trailing newline
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte{'\n'}))
	return nil
}

// compareUTF16 orders strings by UTF-16 code units.
// Go's native string comparison uses UTF-8 bytes, which differs for
// characters outside the BMP.
func compareUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	n := min(len(a16), len(b16))
	for i := 0; i < n; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}
	return len(a16) - len(b16)
}

// lexiconDoc is the on-disk shape of one lexicon entry.
type lexiconDoc struct {
	ID           string `json:"id"`
	FormatVer    *int   `json:"formatVer"`
	CreationTime string `json:"creationTime"`
	Meta         string `json:"meta"`
}

// MarshalLexicon encodes entries as the canonical lexicon document.
// Entry order is preserved; the document is always a JSON array.
func MarshalLexicon(entries []LexiconEntry) ([]byte, error) {
	arr := make([]any, len(entries))
	for i, e := range entries {
		arr[i] = map[string]any{
			"id":           e.ID,
			"formatVer":    e.FormatVersion,
			"creationTime": e.CreationTime.UTC().Format(time.RFC3339Nano),
			"meta":         e.Label,
		}
	}
	data, err := MarshalCanonical(arr)
	if err != nil {
		return nil, fmt.Errorf("marshal lexicon: %w", err)
	}
	return data, nil
}

// UnmarshalLexicon decodes a lexicon document.
// Any structural problem (not an array, missing id, missing formatVer,
// unparseable creationTime) is reported as a CORRUPT_INDEX error.
func UnmarshalLexicon(data []byte) ([]LexiconEntry, error) {
	var docs []lexiconDoc
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, &Error{Code: CodeCorruptIndex, Op: "unmarshal lexicon", Err: err}
	}
	if docs == nil {
		// "null" decodes to a nil slice without error
		return nil, &Error{Code: CodeCorruptIndex, Op: "unmarshal lexicon", Err: fmt.Errorf("document is not an array")}
	}

	entries := make([]LexiconEntry, 0, len(docs))
	for i, d := range docs {
		if d.ID == "" {
			return nil, &Error{Code: CodeCorruptIndex, Op: "unmarshal lexicon", Err: fmt.Errorf("entry %d: missing id", i)}
		}
		if d.FormatVer == nil {
			return nil, &Error{Code: CodeCorruptIndex, Op: "unmarshal lexicon", ID: d.ID, Err: fmt.Errorf("entry %d: missing formatVer", i)}
		}
		ts, err := time.Parse(time.RFC3339Nano, d.CreationTime)
		if err != nil {
			return nil, &Error{Code: CodeCorruptIndex, Op: "unmarshal lexicon", ID: d.ID, Err: fmt.Errorf("entry %d: %w", i, err)}
		}
		entries = append(entries, LexiconEntry{
			ID:            d.ID,
			FormatVersion: *d.FormatVer,
			CreationTime:  ts.UTC(),
			Label:         d.Meta,
		})
	}
	return entries, nil
}
