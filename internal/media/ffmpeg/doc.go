// Package ffmpeg converts media to and from YUV4MPEG2 with the ffmpeg CLI.
//
// Convert decodes the primary video stream of any input into a y4m work
// file. Encoder accepts a y4m stream on stdin and encodes it to the output
// container chosen by file extension.
package ffmpeg
