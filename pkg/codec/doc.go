// Package codec provides the two serialization layers of TaskVault.
//
// # Attribute format
//
// Task attributes are serialized into a single flat string of delimited
// entries:
//
//	<key><SEP><tag><value><SEP><key><SEP><tag><value><SEP>...
//
// SEP is a single pipe character. Literal pipes inside keys and string
// values are replaced with the fixed placeholder "!PIPE!" before emission
// and restored after parsing. The tag is one character identifying the
// value's primitive type:
//
//	i  32-bit integer, decimal text
//	d  64-bit float, decimal text
//	l  64-bit integer, decimal text
//	s  string, escaped
//	b  boolean, "true"/"false" (case-insensitive on decode)
//
// There is no outer envelope, no length prefixes and no checksum; the
// only structural character is the separator, which is why escaping plus
// a plain split is enough to parse it.
//
// Decoding is deliberately lenient. Serialized attribute strings outlive
// the code that wrote them, so a decoder that fails hard on one bad entry
// would make every attribute of that task unreadable. Instead, a numeric
// value with malformed digits is kept as a string, an incomplete trailing
// pair is dropped, and decoding continues; each recovery is reported
// through the diagnostics logger and never surfaced as an error.
//
// # Log record format
//
// Encoded attribute strings are persisted as values of append-only log
// records framed as
//
//	[CRC32(4)][KeySize(4)][ValueSize(4)][Timestamp(8)][Key][Value]
//
// with little-endian integers and the CRC computed over everything after
// the checksum field. The store in pkg/store uses this framing for crash
// recovery: a record whose checksum does not validate marks the point at
// which the log is truncated.
package codec
