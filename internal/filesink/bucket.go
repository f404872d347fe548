package filesink

import "time"

// anchorSeconds is 4 days past the Unix epoch. Shifted by the local UTC
// offset it puts bucket boundaries on local midnight.
const anchorSeconds int64 = 4 * 24 * 60 * 60

// Offset returns the bucket origin for now: anchorSeconds minus the UTC
// offset of now's zone, in seconds.
func Offset(now time.Time) int64 {
	_, zoneOffset := now.Zone()
	return anchorSeconds - int64(zoneOffset)
}

// Bucket returns the start of the granularity window containing now.
//
// For granularity <= 1 it returns now truncated to whole seconds. Otherwise
// it returns offset + floor((now-offset)/granularity)*granularity, so that
// bucket <= now < bucket+granularity. The result keeps now's location.
func Bucket(now time.Time, granularity int64) time.Time {
	ts := now.Unix()
	if granularity <= 1 {
		return time.Unix(ts, 0).In(now.Location())
	}
	offset := Offset(now)
	start := offset + floorDiv(ts-offset, granularity)*granularity
	return time.Unix(start, 0).In(now.Location())
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
