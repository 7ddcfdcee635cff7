// Package scc implements reading and writing of Scenarist Closed Caption
// (SCC) documents, the line-oriented textual form of EIA-608 byte pairs
// used in broadcast workflows. The reader drives the EIA-608 display
// model (Pop-On, Paint-On, Roll-Up buffers, preamble address codes,
// mid-row italics) and produces timed [github.com/zsiec/sccodec/caption]
// captions; the writer packs captions back into PAC-addressed codewords
// with 32-column wrapping and pre-roll timing adjustment.
//
// Only the primary caption channel (CC1) is interpreted. The reader is
// deliberately lenient: unrecognized codewords are skipped, since
// broadcast SCC frequently carries stray bytes.
package scc
