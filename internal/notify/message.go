// Package notify turns booking and visitor pass events into resident
// notifications and delivers them through a pool of workers.
package notify

import (
	"fmt"
	"strings"

	"github.com/Domenick1991/compoundaccess/internal/kafka"
)

type Message struct {
	ResidentID string `json:"-"`
	Title      string `json:"title"`
	Body       string `json:"body"`
	// Tag lets the browser replace an older notification about the same booking or pass.
	Tag string `json:"tag"`
}

// MessageFor builds the resident-facing message for an event. Events that
// residents do not need to hear about report false.
func MessageFor(event kafka.Event) (Message, bool) {
	if event.ResidentID == "" {
		return Message{}, false
	}
	msg := Message{ResidentID: event.ResidentID, Tag: event.Key()}

	amenity := event.AmenityName
	if amenity == "" {
		amenity = "amenity"
	}

	switch event.Type {
	case kafka.EventBookingCreated:
		msg.Title = "Booking received"
		msg.Body = fmt.Sprintf("Your %s booking for %s is %s.", amenity, event.Slot, strings.ToLower(event.Status))
	case kafka.EventBookingConfirmed:
		msg.Title = "Booking confirmed"
		msg.Body = fmt.Sprintf("Your %s booking for %s is confirmed.", amenity, event.Slot)
	case kafka.EventBookingCancelled:
		msg.Title = "Booking cancelled"
		msg.Body = fmt.Sprintf("Your %s booking for %s was cancelled.", amenity, event.Slot)
	case kafka.EventPassIssued:
		msg.Title = "Visitor pass ready"
		msg.Body = fmt.Sprintf("Share the pass for %s with your visitor.", event.VisitorName)
	case kafka.EventPassCheckedIn:
		msg.Title = "Visitor arrived"
		msg.Body = fmt.Sprintf("%s checked in at the gate", event.VisitorName)
		if event.EntryTime != nil {
			msg.Body += " at " + event.EntryTime.Format("15:04")
		}
		msg.Body += "."
	case kafka.EventPassExpired:
		msg.Title = "Visitor pass expired"
		msg.Body = fmt.Sprintf("The pass for %s expired unused.", event.VisitorName)
	case kafka.EventPassCancelled:
		msg.Title = "Visitor pass cancelled"
		msg.Body = fmt.Sprintf("The pass for %s was cancelled.", event.VisitorName)
	default:
		return Message{}, false
	}
	return msg, true
}
