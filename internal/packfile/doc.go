// Package packfile implements the mfpack container format: a sequential,
// self-describing pack file holding framed, individually compressed (or
// base64-armored) blocks behind a fixed magic header.
//
// A pack file is the header followed by zero or more blocks:
//
//	"MIFRAMEPACK/1.0/" + mode byte ('B' or 'T')
//	block, block, ...
//
// Binary-mode block:
//
//	1 byte length-byte count
//	1..7 little-endian length bytes (most significant zero bytes dropped)
//	zlib-compressed payload
//
// Text-mode block:
//
//	'\n'
//	"#" + hex payload length + ":" + digest + '\n'
//	unpadded base64 payload wrapped at 1024 columns
//
// Blocks are written and read strictly in sequence. There is no index and
// no random access; retrieving the Nth block re-scans from the start,
// skipping earlier payloads without decoding them.
package packfile
