package domain

import "time"

// Threshold is the minimum hazard level a subscriber wants to hear about.
type Threshold string

const (
	ThresholdModerate Threshold = "moderate"
	ThresholdHigh     Threshold = "high"
	ThresholdVeryHigh Threshold = "very_high"
)

// Rank returns the ordinal rank of the threshold (moderate=1, high=2,
// very_high=3). Unrecognized values rank 0 and therefore never match.
func (t Threshold) Rank() int {
	switch t {
	case ThresholdModerate:
		return 1
	case ThresholdHigh:
		return 2
	case ThresholdVeryHigh:
		return 3
	default:
		return 0
	}
}

// Lang is a notification locale.
type Lang string

const (
	LangCA Lang = "ca"
	LangES Lang = "es"
	LangEU Lang = "eu"
	LangGL Lang = "gl"
)

// NormalizeLang maps unsupported or missing locales to Catalan.
func NormalizeLang(l Lang) Lang {
	switch l {
	case LangCA, LangES, LangEU, LangGL:
		return l
	default:
		return LangCA
	}
}

// Subscription is one push-notification enrollment, keyed by push token.
// All dedup fields are merge-written only after a successful dispatch of the
// corresponding hazard family; heat keeps the original unprefixed field names.
type Subscription struct {
	// ID is the document key in the store. Normally equal to Token; kept
	// separate so records whose token field was lost remain deletable.
	ID string `firestore:"-"`

	Token     string    `firestore:"token"`
	Lat       float64   `firestore:"lat"`
	Lon       float64   `firestore:"lon"`
	Threshold Threshold `firestore:"threshold"`
	Lang      Lang      `firestore:"lang"`
	Place     string    `firestore:"place,omitempty"`
	CreatedAt time.Time `firestore:"createdAt"`

	LastNotified        *time.Time `firestore:"lastNotified,omitempty"`
	LastNotifiedDay     string     `firestore:"lastNotifiedDay,omitempty"`
	LastColdNotified    *time.Time `firestore:"lastColdNotified,omitempty"`
	LastColdNotifiedDay string     `firestore:"lastColdNotifiedDay,omitempty"`
	LastWindNotified    *time.Time `firestore:"lastWindNotified,omitempty"`
	LastWindNotifiedDay string     `firestore:"lastWindNotifiedDay,omitempty"`
}

// LastNotifiedDayFor returns the local-date string of the last dispatch for
// the given hazard family, or "" if none was recorded.
func (s Subscription) LastNotifiedDayFor(family HazardFamily) string {
	switch family {
	case HazardCold:
		return s.LastColdNotifiedDay
	case HazardWind:
		return s.LastWindNotifiedDay
	default:
		return s.LastNotifiedDay
	}
}

// DedupFields builds the merge-update payload recorded after a successful
// dispatch of the given hazard family.
func (s Subscription) DedupFields(family HazardFamily, now time.Time, localDay string) map[string]any {
	switch family {
	case HazardCold:
		return map[string]any{"lastColdNotified": now, "lastColdNotifiedDay": localDay}
	case HazardWind:
		return map[string]any{"lastWindNotified": now, "lastWindNotifiedDay": localDay}
	default:
		return map[string]any{"lastNotified": now, "lastNotifiedDay": localDay}
	}
}

// LastActivity returns the most recent dispatch time across all hazard
// families, falling back to the enrollment time.
func (s Subscription) LastActivity() time.Time {
	latest := s.CreatedAt
	for _, t := range []*time.Time{s.LastNotified, s.LastColdNotified, s.LastWindNotified} {
		if t != nil && t.After(latest) {
			latest = *t
		}
	}
	return latest
}

// IsStale reports whether the record has seen no activity for longer than maxAge.
func (s Subscription) IsStale(now time.Time, maxAge time.Duration) bool {
	return now.Sub(s.LastActivity()) > maxAge
}

// InQuietHours reports whether the subscriber's local time falls in the
// no-notification window [22:00, 07:00). Local time is derived from the UTC
// offset reported with the weather observation.
func InQuietHours(nowUTC time.Time, utcOffsetSec int) bool {
	h := localTime(nowUTC, utcOffsetSec).Hour()
	return h >= 22 || h < 7
}

// LocalDay returns the subscriber's local calendar date as "YYYY-MM-DD".
func LocalDay(nowUTC time.Time, utcOffsetSec int) string {
	return localTime(nowUTC, utcOffsetSec).Format("2006-01-02")
}

func localTime(nowUTC time.Time, utcOffsetSec int) time.Time {
	return nowUTC.UTC().Add(time.Duration(utcOffsetSec) * time.Second)
}
