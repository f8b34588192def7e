// SPDX-License-Identifier: EPL-2.0

// Package sound is a positional audio engine: sources play assets around a
// moving listener and a per-frame Update keeps their state and attenuation
// current.
//
// A Device wraps a backend.Backend. Sources are Stopped, Playing or Paused;
// only playing sources sit in the device Registry, which is all Update
// visits. Update retires non-looping buffers that ran past their duration,
// rebases looping ones, retires streams that ended and re-evaluates the
// distance model where the backend cannot.
//
// Two attenuation strategies exist and the device picks one from the
// backend capabilities. With a native spatializer the backend receives
// world positions and distance parameters and the listener gain drives the
// master stage. Without one the device computes
//
//	gain = falloff(distance) * listenerGain
//
// for every playing source each frame, where falloff is 1 inside the min
// distance, 0 beyond the max distance and the linear or inverse curve
// between.
//
// Assets load asynchronously through LoadAsset and LoadArchive. Callbacks
// always run from Update on the frame thread, never from a loader
// goroutine, and loads that finish after Destroy are dropped.
package sound
