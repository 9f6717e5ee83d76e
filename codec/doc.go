// Package codec provides the self-describing binary encoding for dynamic
// values.
//
// The native encoding is the canonical input to the cryptographic digest and
// is used on the wire between cradle processes. A content-equivalent
// MessagePack encoding is supported for interchange with external peers.
package codec
