// Package motion estimates block motion between neighbouring frames and
// synthesizes motion-compensated intermediate frames.
//
// The pipeline follows the familiar super/analyse/flow-interpolate shape:
//   - Super builds a per-frame luma pyramid plus a pel-upsampled finest level
//   - Analyse runs hierarchical block matching and returns a lazy Vectors
//     source of per-frame Fields, searching backward or forward in time
//   - FlowInter warps frames n-1 and n toward a temporal position and blends
//     them into a single output frame
//
// Compensator wires the three together and satisfies the FillDrops motion
// compensation contract. Every stage computes on demand for the requested
// index and holds no per-request state, so concurrent use is safe.
package motion
