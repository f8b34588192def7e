// SPDX-License-Identifier: EPL-2.0

package sound

import "errors"

var (
	ErrNotSupported   = errors.New("sound: not supported")
	ErrDestroyed      = errors.New("sound: device or source destroyed")
	ErrNotPlaying     = errors.New("sound: source is not playing")
	ErrNoAsset        = errors.New("sound: no asset")
	ErrAssetDestroyed = errors.New("sound: asset destroyed")
	ErrNoData         = errors.New("sound: asset has neither source path nor data")
	ErrInvalidParam   = errors.New("sound: invalid source parameter")
)

// Load status codes passed to load callbacks. They follow HTTP semantics.
const (
	StatusFailed   = 0
	StatusOK       = 200
	StatusNotFound = 404
	StatusIOError  = 500
)
