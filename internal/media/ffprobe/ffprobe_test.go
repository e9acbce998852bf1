package ffprobe

import (
	"errors"
	"math"
	"testing"
)

const sampleJSON = `{
  "streams": [
    {"index": 0, "codec_name": "mjpeg", "codec_type": "video", "width": 300, "height": 300, "disposition": {"attached_pic": 1}},
    {"index": 1, "codec_name": "h264", "codec_type": "video", "width": 1920, "height": 1080,
     "pix_fmt": "yuv420p", "r_frame_rate": "24000/1001", "avg_frame_rate": "0/0", "nb_frames": "1440"},
    {"index": 2, "codec_name": "aac", "codec_type": "audio"}
  ],
  "format": {"filename": "in.mkv", "duration": "60.06", "size": "1000", "format_name": "matroska,webm"}
}`

func TestParsePicksPrimaryVideo(t *testing.T) {
	result, err := Parse([]byte(sampleJSON))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	stream, err := result.PrimaryVideo()
	if err != nil {
		t.Fatalf("PrimaryVideo: %v", err)
	}
	if stream.Index != 1 || stream.PixFmt != "yuv420p" {
		t.Fatalf("unexpected stream %+v", stream)
	}
	num, den, ok := stream.FrameRate()
	if !ok || num != 24000 || den != 1001 {
		t.Fatalf("FrameRate = %d/%d %v", num, den, ok)
	}
	if stream.FrameCount() != 1440 {
		t.Fatalf("FrameCount = %d", stream.FrameCount())
	}
	if result.DurationSeconds() != 60.06 || result.SizeBytes() != 1000 {
		t.Fatalf("unexpected format values %v %d", result.DurationSeconds(), result.SizeBytes())
	}
}

func TestPrimaryVideoMissing(t *testing.T) {
	result := Result{Streams: []Stream{{CodecType: "audio"}}}
	if _, err := result.PrimaryVideo(); !errors.Is(err, ErrNoVideo) {
		t.Fatalf("PrimaryVideo error = %v", err)
	}
}

func TestStreamFallbacks(t *testing.T) {
	stream := Stream{RFrameRate: "bad", AvgFrameRate: "25/1", NBFrames: "N/A"}
	if num, den, ok := stream.FrameRate(); !ok || num != 25 || den != 1 {
		t.Fatalf("FrameRate = %d/%d %v", num, den, ok)
	}
	if stream.FrameCount() != 0 {
		t.Fatalf("FrameCount = %d", stream.FrameCount())
	}
	if _, _, ok := (Stream{RFrameRate: "0/0"}).FrameRate(); ok {
		t.Fatal("expected 0/0 to be rejected")
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{Format: Format{Duration: "bad", Size: "-1"}}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 0 {
		t.Fatalf("expected size 0, got %d", result.SizeBytes())
	}
}
