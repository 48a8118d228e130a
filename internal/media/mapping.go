package media

// Predicate decides whether a source stream is carried into the output.
type Predicate func(Stream) bool

// MediumIn keeps streams whose medium is one of mediums.
func MediumIn(mediums ...Medium) Predicate {
	set := make(map[Medium]struct{}, len(mediums))
	for _, m := range mediums {
		set[m] = struct{}{}
	}
	return func(s Stream) bool {
		_, ok := set[s.Medium()]
		return ok
	}
}

// OnlyIndex keeps the single stream with the given source index.
func OnlyIndex(index int) Predicate {
	return func(s Stream) bool {
		return s.Index == index
	}
}

// StreamMapping assigns output indices to the source streams an operation
// keeps. Output indices are dense, start at zero and follow source order.
type StreamMapping struct {
	outputs map[int]int
	sources []int
}

// Select walks streams in container order and assigns the next output index
// to every stream accepted by keep. Rejected streams are unmapped.
func Select(streams []Stream, keep Predicate) StreamMapping {
	mapping := StreamMapping{outputs: make(map[int]int, len(streams))}
	for _, stream := range streams {
		if keep == nil || !keep(stream) {
			continue
		}
		if _, dup := mapping.outputs[stream.Index]; dup {
			continue
		}
		mapping.outputs[stream.Index] = len(mapping.sources)
		mapping.sources = append(mapping.sources, stream.Index)
	}
	return mapping
}

// Lookup returns the output index for a source stream index.
func (m StreamMapping) Lookup(source int) (int, bool) {
	out, ok := m.outputs[source]
	return out, ok
}

// Len returns the number of mapped streams.
func (m StreamMapping) Len() int {
	return len(m.sources)
}

// Sources returns the mapped source indices in output order.
func (m StreamMapping) Sources() []int {
	return append([]int(nil), m.sources...)
}
