// Package value provides the self-describing dynamic value model used
// throughout request resolution.
//
// A Value is one of: nil, boolean, 64-bit integer, 64-bit float, UTF-8
// string, blob, datetime (UTC, millisecond precision), array, or map.
// Equality is structural; maps compare as unordered sets of key/value
// pairs with unique keys.
package value
