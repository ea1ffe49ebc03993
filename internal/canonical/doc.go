// Package canonical provides the JSON value model and RFC 8785 canonical
// serialization used to fingerprint canonical expression trees.
//
// Key properties of the encoding:
//   - Object keys are sorted by UTF-16 code units, not UTF-8 bytes
//   - Strings are NFC normalized and only ", \ and control characters are escaped
//   - No HTML escaping and no insignificant whitespace
//   - No floats; callers encode floating point data as strings
//
// Hash applies SHA-256 with a domain prefix so that hashes of different
// record kinds can never collide.
package canonical
