// Package y4m reads and writes YUV4MPEG2 streams.
//
// Reader indexes frame offsets once at open and then serves frames by
// random access, so it satisfies video.Clip without holding decoded frames
// in memory. Writer emits frames sequentially.
package y4m
