package media

// BestStream picks the preferred stream of a medium. Relayable streams beat
// ones the backend cannot carry. After that candidates rank the way
// demuxers rank them: streams flagged for impaired audiences lose to
// regular ones, the default disposition wins next, then channel count,
// then bit rate. Remaining ties go to the lowest index.
func BestStream(streams []Stream, medium Medium) (Stream, bool) {
	var (
		best      Stream
		bestScore streamScore
		found     bool
	)
	for _, stream := range streams {
		if stream.Medium() != medium {
			continue
		}
		score := scoreStream(stream)
		if !found || score.beats(bestScore) {
			best = stream
			bestScore = score
			found = true
		}
	}
	return best, found
}

type streamScore struct {
	relayable bool
	regular   bool
	dflt      bool
	channels  int
	bitRate   int64
}

func scoreStream(s Stream) streamScore {
	return streamScore{
		relayable: s.Relayable(),
		regular:   !s.Disposition.HearingImpaired && !s.Disposition.VisualImpaired,
		dflt:      s.Disposition.Default,
		channels:  s.Codec.Channels,
		bitRate:   s.Codec.BitRate,
	}
}

func (a streamScore) beats(b streamScore) bool {
	if a.relayable != b.relayable {
		return a.relayable
	}
	if a.regular != b.regular {
		return a.regular
	}
	if a.dflt != b.dflt {
		return a.dflt
	}
	if a.channels != b.channels {
		return a.channels > b.channels
	}
	return a.bitRate > b.bitRate
}
