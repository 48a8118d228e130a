// Package mpegts reads and writes the MPEG transport stream used as the
// packet interchange between the ffmpeg processes and the Go relay.
//
// Reader turns a transport stream into PES level packets bound to their
// elementary streams; Writer does the reverse. Both wrap go-astits.
package mpegts
