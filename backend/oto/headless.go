// SPDX-License-Identifier: EPL-2.0

//go:build headless

package oto

import (
	"sync"
	"time"

	"github.com/ik5/soundscape/backend/mixer"
)

const tick = 10 * time.Millisecond

// Output advances the mixer in real time without touching any device.
type Output struct {
	mu        sync.Mutex
	m         *mixer.Mixer
	last      time.Time
	suspended bool
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// Open starts the pump. bufferSize is accepted for parity with the device
// build and ignored.
func Open(m *mixer.Mixer, _ time.Duration) (*Output, error) {
	o := &Output{
		m:    m,
		last: time.Now(),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go o.run()
	return o, nil
}

func (o *Output) run() {
	defer close(o.done)

	t := time.NewTicker(tick)
	defer t.Stop()

	for {
		select {
		case <-o.stop:
			return
		case now := <-t.C:
			o.mu.Lock()
			elapsed := now.Sub(o.last)
			o.last = now
			suspended := o.suspended
			o.mu.Unlock()

			if !suspended {
				o.m.Advance(elapsed)
			}
		}
	}
}

func (o *Output) Suspend() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.suspended = true
	return nil
}

func (o *Output) Resume() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.suspended = false
	o.last = time.Now()
	return nil
}

func (o *Output) Close() error {
	o.closeOnce.Do(func() { close(o.stop) })
	<-o.done
	return nil
}
