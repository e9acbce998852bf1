// Command filldrops replaces duplicated frames in a video with
// motion-compensated interpolations.
//
//	filldrops run input.y4m output.y4m
//	filldrops analyze input.mkv --frames
//	filldrops history list
//
// Inputs other than YUV4MPEG2 are converted with ffmpeg into the configured
// work directory first; outputs other than .y4m are encoded by piping the
// rendered stream into ffmpeg.
package main
