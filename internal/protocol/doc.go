// Package protocol decodes and encodes the screen-streaming wire format.
//
// A stream is a little-endian handshake followed by an unbounded sequence
// of frame records:
//
//	uint32 width
//	uint32 height
//	repeat {
//	    uint32 compressedLength
//	    byte[compressedLength] gzip payload   // N * width*height*3 raw RGB bytes
//	}
//
// [Parser] is an incremental state machine: bytes are fed in whatever
// chunks the transport produced and [Parser.Next] yields events once a
// complete field is buffered. The event sequence does not depend on how
// the stream was split.
//
// Width and height above [MaxDimension] and compressed lengths above
// [MaxCompressedLength] are treated as corruption. They are sanity bounds
// that catch byte-order and framing errors, not limits of the format.
package protocol
