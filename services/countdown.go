package services

import "time"

// Countdown reports how long until bookings open
type Countdown struct {
	launchAt time.Time
	now      func() time.Time
}

// CountdownStatus is the public view of the countdown
type CountdownStatus struct {
	LaunchAt         *time.Time `json:"launchAt"`
	Now              time.Time  `json:"now"`
	RemainingSeconds int64      `json:"remainingSeconds"`
	IsLive           bool       `json:"isLive"`
}

// NewCountdown builds a countdown to launchAt; a zero launchAt is live already
func NewCountdown(launchAt time.Time, now func() time.Time) *Countdown {
	if now == nil {
		now = time.Now
	}
	return &Countdown{launchAt: launchAt, now: now}
}

func (c *Countdown) IsLive() bool {
	return c.launchAt.IsZero() || !c.now().Before(c.launchAt)
}

func (c *Countdown) Status() CountdownStatus {
	now := c.now().UTC()
	status := CountdownStatus{Now: now, IsLive: c.IsLive()}
	if c.launchAt.IsZero() {
		return status
	}
	at := c.launchAt.UTC()
	status.LaunchAt = &at
	if !status.IsLive {
		// round up so the client never shows 0 while still closed
		status.RemainingSeconds = int64((at.Sub(now) + time.Second - 1) / time.Second)
	}
	return status
}
