// Package codec implements the opaque, host-local binary encoding of an
// OperationPayload carried inside a Raft log entry.
//
// The format is deliberately not portable across machines of differing
// endianness: it uses the host's native byte order throughout. This is
// an explicit, documented limitation (see the doc comment on Encode),
// not an oversight — cross-node encoding portability is out of
// scope for this system.
package codec
