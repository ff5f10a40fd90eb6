package models

import "time"

// TimestampPrecision is the finest resolution a timestamp keeps after a
// round trip through the remote store (Postgres TIMESTAMPTZ).
const TimestampPrecision = time.Microsecond

// Now returns the current UTC time cut to [TimestampPrecision].
func Now() time.Time {
	return time.Now().UTC().Truncate(TimestampPrecision)
}

// SameInstant reports whether a and b are equal at [TimestampPrecision].
func SameInstant(a, b time.Time) bool {
	return a.Truncate(TimestampPrecision).Equal(b.Truncate(TimestampPrecision))
}
