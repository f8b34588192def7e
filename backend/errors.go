// SPDX-License-Identifier: EPL-2.0

package backend

import "errors"

var (
	ErrClosed           = errors.New("backend is closed")
	ErrNodeCreation     = errors.New("backend cannot create playback node")
	ErrUnsupportedAsset = errors.New("backend cannot play this buffer layout")
	ErrDisconnected     = errors.New("node or voice is disconnected")
)
