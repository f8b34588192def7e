// SPDX-License-Identifier: EPL-2.0

package sound

// Effect, EffectSlot and Filter exist so callers written for effect-capable
// devices compile. No backend implements them.
type (
	Effect     struct{}
	EffectSlot struct{}
	Filter     struct{}
)

func (d *Device) CreateEffect(name string) (*Effect, error)             { return nil, ErrNotSupported }
func (d *Device) CreateEffectSlot() (*EffectSlot, error)                { return nil, ErrNotSupported }
func (d *Device) CreateFilter(name string) (*Filter, error)             { return nil, ErrNotSupported }
func (s *Source) SetEffectSlot(*EffectSlot) bool                        { return false }
func (s *Source) SetDirectFilter(*Filter) bool                          { return false }
func (s *Source) ClearDirectFilter() bool                               { return false }
func (s *Source) ClearAuxiliarySend() bool                              { return false }
func (s *Source) SetAuxiliarySendFilter(int, *EffectSlot, *Filter) bool { return false }
