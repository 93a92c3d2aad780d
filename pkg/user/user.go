package user

import (
	"errors"
	"time"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrUserDataInvalid = errors.New("invalid user data")
	// ErrUnauthenticated means the bearer token is missing or unknown.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrSubscriptionInactive means the user exists but may not use the remote record service.
	ErrSubscriptionInactive = errors.New("subscription inactive")
)

type SubscriptionStatus string

const (
	SubscriptionTrialing SubscriptionStatus = "trialing"
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionPastDue  SubscriptionStatus = "past_due"
	SubscriptionCanceled SubscriptionStatus = "canceled"
)

// Entitled reports whether the status grants access to the record service.
func (s SubscriptionStatus) Entitled() bool {
	return s == SubscriptionTrialing || s == SubscriptionActive
}

type User struct {
	Id           int
	Uid          string
	Username     string
	DisplayName  string
	Subscription SubscriptionStatus
	Settings     Settings
}

type Settings struct {
	Timezone       string
	Currency       string
	GoogleCalendar GoogleCalendarSettings
}

type GoogleCalendarSettings struct {
	CalendarId string
}

// Location returns the user's time zone, UTC when unset or unknown.
func (s Settings) Location() *time.Location {
	if s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
