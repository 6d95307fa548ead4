// Package record owns the BIFF8 record layer: physical frames, continuation
// split/join, the payload body contract, and tag dispatch.
//
// Frame layout (little-endian):
//
//	[0:2)          type tag
//	[2:4)          payload length (0..MaxPayload)
//	[4:4+length)   payload
//
// A logical record whose payload exceeds MaxPayload is written as a head frame
// carrying the record's own tag followed by continuation frames carrying the
// format's continuation tag. Decoding reassembles them before the payload is
// handed to the kind decoder, so decoders never see frame boundaries.
//
// Ownership boundary:
// - header/frame primitives and the byte source contract
// - continuation split/join
// - Body contract, RawPayload fallback, CellRef capability
// - Registry dispatch from tag to decoder
//
// Concrete payload layouts live in package kinds.
package record
