// Package pipeline composes the media primitives into the three operations
// a short needs: TrimVideo, ExtractAudio and BurnSubtitles.
//
// Each operation opens one source and one destination through a Framework,
// selects the streams to carry, copies codec parameters and metadata,
// relays packets under the configured failure policy and finalizes the
// destination. A failure before the trailer is written is fatal and any
// partial output is left for the caller to remove.
package pipeline
