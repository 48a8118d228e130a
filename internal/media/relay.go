package media

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"quickshorts/internal/logging"
)

// PacketFailurePolicy controls how the relay reacts to a packet the sink
// rejects.
type PacketFailurePolicy int

const (
	// BestEffort counts and logs the failure, then continues with the next packet.
	BestEffort PacketFailurePolicy = iota
	// FailFast aborts the relay on the first failure.
	FailFast
)

func (p PacketFailurePolicy) String() string {
	switch p {
	case FailFast:
		return "fail_fast"
	default:
		return "best_effort"
	}
}

// ParsePacketFailurePolicy accepts "best_effort" (or empty) and "fail_fast".
func ParsePacketFailurePolicy(value string) (PacketFailurePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "best_effort", "best-effort":
		return BestEffort, nil
	case "fail_fast", "fail-fast":
		return FailFast, nil
	default:
		return BestEffort, fmt.Errorf("packet failure policy: unsupported value %q", value)
	}
}

// RelayStats summarizes one relay pass.
type RelayStats struct {
	Read         int64
	Written      int64
	Discarded    int64
	Failed       int64
	FirstFailure error
	// StoppedEarly is set when the sink completed before the source ended.
	StoppedEarly bool
}

// Relay copies packets from a Source to a Sink according to a StreamMapping.
type Relay struct {
	Policy PacketFailurePolicy
	Logger *slog.Logger
}

// Run reads every packet from src exactly once. Packets of unmapped streams
// are discarded; mapped packets have their stream index rewritten to the
// output index and are written to dst with payload and timestamps untouched.
// A read error other than io.EOF ends the relay with that error. Sinks
// implementing Completer may end the relay early.
func (r Relay) Run(src Source, dst Sink, mapping StreamMapping) (RelayStats, error) {
	logger := r.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	completer, _ := dst.(Completer)
	var stats RelayStats
	for {
		pkt, err := src.ReadPacket()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats, err
		}
		stats.Read++

		out, ok := mapping.Lookup(pkt.StreamIndex)
		if !ok {
			stats.Discarded++
			continue
		}
		source := pkt.StreamIndex
		pkt.StreamIndex = out
		if err := dst.WritePacket(pkt); err != nil {
			stats.Failed++
			if stats.FirstFailure == nil {
				stats.FirstFailure = err
			}
			if r.Policy == FailFast {
				return stats, Wrap(ErrPacketWrite, fmt.Sprintf("stream %d packet %d", source, stats.Read), err)
			}
			if stats.Failed == 1 {
				logging.WarnWithContext(logger, "packet write failed; continuing", "packet_write_failed",
					logging.Int(logging.FieldSourceStream, source),
					logging.Int64("packet", stats.Read),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "inspect the source for damaged packets"),
					logging.String(logging.FieldImpact, "output may contain a brief glitch"),
				)
			} else {
				logger.Debug("packet write failed",
					logging.Int(logging.FieldSourceStream, source),
					logging.Int64("packet", stats.Read),
					logging.Error(err),
				)
			}
			continue
		}
		stats.Written++
		if completer != nil && completer.Complete() {
			stats.StoppedEarly = true
			logger.Debug("sink complete; stopping relay", logging.Int64("packets_read", stats.Read))
			break
		}
	}
	if stats.Failed > 1 {
		logging.WarnWithContext(logger, "relay finished with packet failures", "packet_write_failed",
			logging.Int64("failed", stats.Failed),
			logging.Int64("written", stats.Written),
			logging.String(logging.FieldImpact, "output may contain glitches"),
		)
	}
	return stats, nil
}
