// Package pipeline connects the lane finding stages into a per-frame process.
//
// A Pipeline is built once per camera from a configuration and a calibration
// and is immutable afterwards. Video is processed through a Sequence, which
// owns the lane tracking state and serializes its frames. Unrelated still
// images are processed with ProcessStills, each with a fresh state.
//
// # Stages
//
//	frame -> undistort -> threshold -> warp to bird's-eye -> track -> curvature/offset -> overlay
//
// Each stage can be switched off in config.StageConfig. With the threshold
// stage off the (undistorted) frame is read as an already binary mask, and
// with the warp stage off that mask is taken to be in bird's-eye view.
package pipeline
