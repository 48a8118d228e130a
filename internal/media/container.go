package media

// Source is an opened input container.
//
// Streams and Metadata may be called any number of times. ReadPacket yields
// packets in the container's native interleave order and returns io.EOF once
// the container is exhausted; the sequence cannot be restarted.
type Source interface {
	Streams() []Stream
	Metadata() Metadata
	BestStream(medium Medium) (Stream, bool)
	ReadPacket() (Packet, error)
	Close() error
}

// Sink is an output container under construction.
//
// Call order is AddStream (one or more), SetMetadata, WriteHeader,
// WritePacket (zero or more), WriteTrailer, Close. Close may be called in
// any state and releases whatever was acquired.
type Sink interface {
	AddStream(params CodecParameters) (int, error)
	SetMetadata(md Metadata)
	WriteHeader() error
	WritePacket(pkt Packet) error
	WriteTrailer() error
	Close() error
}

// Completer is implemented by sinks that can finish before the source is
// exhausted, for example once a time window has been fully written. The
// relay stops reading when Complete reports true.
type Completer interface {
	Complete() bool
}
