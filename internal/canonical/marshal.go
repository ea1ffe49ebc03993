package canonical

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	"github.com/cockroachdb/errors"
	"golang.org/x/text/unicode/norm"
)

// DomainExpr prefixes hashes of canonical expression trees. The version
// suffix allows the encoding to evolve.
const DomainExpr = "lexc/expr/v1"

// Marshal produces the canonical JSON encoding of v.
func Marshal(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := encode(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encode(buf *bytes.Buffer, v Value) error {
	switch val := v.(type) {
	case nil:
		return errors.New("canonical: nil value (use Null)")
	case Null:
		buf.WriteString("null")
	case String:
		encodeString(buf, string(val))
	case Int:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
	case Bool:
		buf.WriteString(strconv.FormatBool(bool(val)))
	case Array:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encode(buf, elem); err != nil {
				return errors.Wrapf(err, "array[%d]", i)
			}
		}
		buf.WriteByte(']')
	case Object:
		buf.WriteByte('{')
		prev := ""
		for i, k := range val.SortedKeys() {
			nk := norm.NFC.String(k)
			if i > 0 {
				if nk == prev {
					return errors.Newf("canonical: duplicate object key %q after NFC normalization", nk)
				}
				buf.WriteByte(',')
			}
			prev = nk
			encodeString(buf, k)
			buf.WriteByte(':')
			if err := encode(buf, val[k]); err != nil {
				return errors.Wrapf(err, "object[%q]", k)
			}
		}
		buf.WriteByte('}')
	default:
		return errors.Newf("canonical: unsupported value %T", v)
	}
	return nil
}

const hexDigits = "0123456789abcdef"

// encodeString writes s NFC normalized, escaping only what RFC 8785
// requires: quote, backslash and U+0000..U+001F.
func encodeString(buf *bytes.Buffer, s string) {
	s = norm.NFC.String(s)
	buf.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if c < 0x20 {
				buf.WriteString(`\u00`)
				buf.WriteByte(hexDigits[c>>4])
				buf.WriteByte(hexDigits[c&0xf])
				continue
			}
			buf.WriteByte(c)
		}
	}
	buf.WriteByte('"')
}

// Hash returns the hex SHA-256 of domain, a 0x00 separator, and the
// canonical encoding of v.
func Hash(domain string, v Value) (string, error) {
	data, err := Marshal(v)
	if err != nil {
		return "", errors.Wrap(err, "hash")
	}
	return HashBytes(domain, data), nil
}

// HashBytes hashes already-canonical bytes under domain.
func HashBytes(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// MustHash is like Hash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustHash(domain string, v Value) string {
	h, err := Hash(domain, v)
	if err != nil {
		panic(err)
	}
	return h
}
