// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

package scheduler

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lassandro/godcpu/pkg/machine"
)

// Scheduler converts elapsed wall-clock time into cycle grants for a machine.
// It is not safe for concurrent use; the goroutine calling Run owns the
// machine.
type Scheduler struct {
	Machine *machine.Machine

	// Rate is the nominal clock rate in cycles per second. Zero selects
	// machine.CLOCK_RATE.
	Rate int64

	// Now is the wall clock. Nil selects time.Now.
	Now func() time.Time

	// Log receives clamp events at debug level. Nil disables logging.
	Log logrus.FieldLogger

	last    time.Time
	started bool
}

func New(mc *machine.Machine) *Scheduler {
	return &Scheduler{Machine: mc}
}

func (s *Scheduler) rate() int64 {
	if s.Rate <= 0 {
		return machine.CLOCK_RATE
	}
	return s.Rate
}

func (s *Scheduler) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// Reset forgets the last invocation time. The next Run only records the
// current time.
func (s *Scheduler) Reset() {
	s.started = false
}

// Run grants the machine the cycles that elapsed since the previous call and
// executes until they are spent. Overshoot is carried as debt in
// machine.Cycles. A decode error stops execution and is returned as-is.
func (s *Scheduler) Run() error {
	now := s.now()

	if !s.started {
		s.last = now
		s.started = true
		return nil
	}

	rate := s.rate()
	elapsed := now.Sub(s.last)

	// Anything past one second of catch-up is dropped. Checked on the
	// duration first so the multiplication below cannot overflow.
	if elapsed > time.Second {
		if s.Log != nil {
			s.Log.WithFields(logrus.Fields{
				"elapsed": elapsed,
				"cycles":  rate,
			}).Debug("clamping cycle budget")
		}

		s.Machine.TickDevices()
		s.last = now
		return s.spend(rate)
	}

	cycles := int64(elapsed) * rate / int64(time.Second)

	// Sub-cycle calls must not mutate anything, including the timestamp, so
	// that the fraction accumulates.
	if cycles <= 0 {
		return nil
	}

	s.Machine.TickDevices()
	s.last = s.last.Add(time.Duration(cycles * int64(time.Second) / rate))

	return s.spend(cycles)
}

func (s *Scheduler) spend(cycles int64) error {
	mc := s.Machine
	mc.Cycles -= cycles

	for mc.Cycles < 0 {
		if err := mc.Step(); err != nil {
			return err
		}
	}

	return nil
}
