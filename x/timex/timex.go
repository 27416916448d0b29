package timex

import "time"

// NowMs returns Unix milliseconds as int64.
func NowMs() int64 { return time.Now().UnixMilli() }

// Ms converts a timestamp to the bus's ts_ms form. The zero time maps to 0.
func Ms(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// PeriodFromHz returns the period of a frequency. 0 Hz is treated as 1 Hz.
func PeriodFromHz(hz uint32) time.Duration {
	if hz == 0 {
		hz = 1
	}
	return time.Second / time.Duration(hz)
}

// HalfPeriod is the on (or off) time of a square wave at hz.
func HalfPeriod(hz uint32) time.Duration { return PeriodFromHz(hz) / 2 }
