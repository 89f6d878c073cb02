package engine

import "time"

// oneShotSchedule fires exactly once, immediately, then never again. cron
// has no native one-shot primitive; this satisfies cron.Schedule so a
// job without a `schedule` can still be registered on the same cron.Cron
// as the recurring jobs instead of needing a second dispatch path.
type oneShotSchedule struct {
	fired bool
}

func newOneShotSchedule() *oneShotSchedule {
	return &oneShotSchedule{}
}

// Next returns the current time the first time it is called (cron treats
// that as "fire on the next tick") and the zero time forever after, which
// cron's entry scan treats as "never again".
func (s *oneShotSchedule) Next(t time.Time) time.Time {
	if s.fired {
		return time.Time{}
	}
	s.fired = true
	return t
}
