// Package media defines the container model shared by the remux engine:
// streams, codec parameters, packets, stream mappings and the packet relay.
//
// This package has no dependency on a particular multimedia backend. The
// ffmpeg subpackage provides the Source and Sink implementations used in
// production; tests drive the relay with in-memory fakes.
//
// Key types:
//   - Stream, CodecParameters, Packet: the container model
//   - StreamMapping: source stream index to output index assignment
//   - Relay: copies packets from a Source to a Sink under a PacketFailurePolicy
//
// Primary entry points:
//   - Select: builds a StreamMapping from a stream list and a Predicate
//   - Relay.Run: relays every packet of a Source into a Sink
package media
