package core

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// NewTextHash hashes the UTF-8 bytes of text
func NewTextHash(text string) Hash {
	return NewHash([]byte(text))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// Short8 returns the first 8 hex characters, used as an identifier suffix
func (h Hash) Short8() string {
	if len(h) < 8 {
		return string(h)
	}
	return string(h[:8])
}

// CanonicalJSON serializes a value as JSON with object keys sorted at every
// level. Two structurally equal values always serialize to the same bytes,
// independent of struct field order or map iteration order, so the output is
// safe both for digest computation and for byte-equality checks.
func CanonicalJSON(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canonical marshal: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic interface{}
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("canonical decode: %w", err)
	}

	var buf bytes.Buffer
	if err := writeCanonical(&buf, generic); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// CanonicalHash is the digest of the canonical serialization of v
func CanonicalHash(v interface{}) (Hash, error) {
	data, err := CanonicalJSON(v)
	if err != nil {
		return "", err
	}
	return NewHash(data), nil
}

func writeCanonical(buf *bytes.Buffer, v interface{}) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case json.Number:
		buf.WriteString(val.String())
	case string:
		encoded, err := json.Marshal(val)
		if err != nil {
			return err
		}
		buf.Write(encoded)
	case []interface{}:
		buf.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case map[string]interface{}:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			encodedKey, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(encodedKey)
			buf.WriteByte(':')
			if err := writeCanonical(buf, val[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("canonical serialize: unsupported type %T", v)
	}
	return nil
}

// InputsDigest fingerprints the full input surface of a run. Two runs with
// identical inputs share the digest even when issued at different times.
func InputsDigest(domain string, seed int64, count int, packDigest Hash, priorsVersion string) (Hash, error) {
	return CanonicalHash(map[string]interface{}{
		"domain":             domain,
		"seed":               seed,
		"hypothesis_count":   count,
		"domain_pack_digest": packDigest.String(),
		"priors_version":     priorsVersion,
	})
}
