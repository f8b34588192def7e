// SPDX-License-Identifier: EPL-2.0

// Package soundscape is a positional audio engine for games and
// simulations. Sources play decoded assets around a moving listener;
// distance falloff, panning and Doppler are applied either by the software
// mixer or by the device itself, depending on configuration.
//
// # Quick Start
//
// Open builds everything from a config.Device:
//
//	eng, err := soundscape.Open(config.DefaultDevice())
//	if err != nil {
//	    return err
//	}
//	defer eng.Close()
//
//	eng.LoadAsset(ctx, sound.AssetParams{Src: "sfx/door.ogg"}, func(a *sound.Asset, status int) {
//	    if status == sound.StatusOK {
//	        door.Play(a, 0)
//	    }
//	})
//
//	for running {
//	    eng.SetListenerTransform(camera)
//	    eng.Update()
//	}
//
// With the mixer backend nothing is rendered until the caller pulls frames
// through eng.Mixer (Render, Read or Advance). With the oto backend the
// system audio device pulls them.
//
// # Packages
//
//   - sound: the device, sources, assets and asset loading.
//   - backend: the contract the device drives; backend/mixer is the
//     software implementation and backend/oto plays it out.
//   - spatial: vectors, listener transforms and the distance models.
//   - audio: the decode and conversion pipeline.
//   - formats/...: WAV, MP3, Ogg Vorbis, AIFF and MIDI decoders.
//   - config: YAML configuration for devices and source presets.
//
// DecodeFile is a standalone helper for tools that only need PCM.
package soundscape
