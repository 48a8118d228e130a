// Package subtitles owns everything subtitle related in the short pipeline:
// the style encoder that turns font, color and position settings into an
// ffmpeg subtitles filter expression, the speech-to-text generator that runs
// the whisper CLI, and light inspection of the SRT files it produces.
//
// Key types:
//   - StyleSpec / Style: raw user settings and their validated form
//   - FilterExpression: the escaped filter text handed to the encoder
//   - Generator: runs whisper and locates the generated SRT
package subtitles
