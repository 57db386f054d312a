package domain

import "time"

// maxDisplayUserAgent bounds the user agent string shown in stats views.
const maxDisplayUserAgent = 100

// ClickInfo carries the request metadata captured on the redirect path.
type ClickInfo struct {
	IPAddress   string
	UserAgent   string
	Referer     string
	CountryCode string
}

// ClickEvent represents a single redirect click. It is immutable once
// constructed and handed to the click pipeline.
type ClickEvent struct {
	URLID       int64
	Timestamp   time.Time
	IPAddress   string
	UserAgent   string
	Referer     string
	CountryCode string
}

// NewClickEvent builds a ClickEvent for a URL from redirect request metadata.
func NewClickEvent(urlID int64, info ClickInfo) ClickEvent {
	return ClickEvent{
		URLID:       urlID,
		Timestamp:   time.Now().UTC(),
		IPAddress:   info.IPAddress,
		UserAgent:   info.UserAgent,
		Referer:     info.Referer,
		CountryCode: info.CountryCode,
	}
}

// DisplayUserAgent returns the user agent truncated for display.
func (e ClickEvent) DisplayUserAgent() string {
	if len(e.UserAgent) <= maxDisplayUserAgent {
		return e.UserAgent
	}
	return e.UserAgent[:maxDisplayUserAgent]
}

// DayCount is the number of clicks recorded on a single UTC day.
type DayCount struct {
	Day    time.Time
	Clicks int64
}

// URLClickStats aggregates clicks for one URL over a time range.
type URLClickStats struct {
	URLID       int64
	TotalClicks int64
	Daily       []DayCount
}

// UserClickStats aggregates clicks across all URLs owned by a user.
type UserClickStats struct {
	UserID      string
	TotalClicks int64
	URLCount    int64
	Daily       []DayCount
}
