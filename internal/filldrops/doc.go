// Package filldrops replaces duplicate frames with motion-compensated
// interpolations.
//
// For each requested index the Pipeline asks the Analyzer for the luma
// difference between the original frame and its original predecessor (frame
// 0 is compared with itself). A difference strictly below the threshold keeps
// the original frame; anything else is served by the MotionCompensator. The
// compensator is only consulted when the decision requires it and only for
// the requested index.
//
// Collaborators are injected at construction:
//   - DiffEngine computes the scalar difference and declares its range
//   - MotionCompensator serves the interpolated frame for an index
//
// Pipeline is itself a video.Clip, so it composes with readers, writers, and
// Render without buffering the stream.
package filldrops
