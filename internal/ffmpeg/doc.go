// Package ffmpeg locates the transcoding engine and drives it to trim audio
// files and extract fixed-length segments for fingerprinting.
package ffmpeg
