// SPDX-License-Identifier: EPL-2.0

// Package config loads sound device settings and source presets from YAML.
//
// A minimal file:
//
//	device:
//	  frequency: 48000
//	  backend: oto
//	  linear_distance: false
//	sources:
//	  footsteps:
//	    relative: true
//	    max_distance: 30
//
// Omitted keys keep the values from [DefaultDevice] and [DefaultSource].
package config
