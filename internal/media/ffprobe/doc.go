// Package ffprobe inspects input media with ffprobe and exposes the fields
// needed to convert a video stream to YUV4MPEG2.
//
// Inspect runs ffprobe for one file; Result.PrimaryVideo picks the stream
// that conversion will decode.
package ffprobe
