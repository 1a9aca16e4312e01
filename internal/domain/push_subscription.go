package domain

import "time"

// PushSubscription is a browser push endpoint registered by a resident.
type PushSubscription struct {
	Endpoint   string
	ResidentID string
	P256DH     string
	Auth       string
	CreatedAt  time.Time
}
