// SPDX-License-Identifier: EPL-2.0

// Package oto plays a software mixer through the system audio device.
//
// Open starts an oto player that pulls float32 frames from a
// [mixer.Mixer]; the mixer's clock then follows the hardware. Built with
// the headless tag, Open instead drives the mixer from a wall-clock ticker
// so servers and CI machines without a sound card keep the same timing.
package oto
