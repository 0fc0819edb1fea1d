package events

import (
	"github.com/rs/zerolog"
)

// BookingEventTypes lists the booking lifecycle events.
var BookingEventTypes = []string{EventBookingCreated, EventBookingApproved, EventBookingRejected}

// AuditLog returns a handler that records booking and comment events.
func AuditLog(logger *zerolog.Logger) EventHandler {
	l := logger.With().Str("component", "audit").Logger()
	return func(event *Event) error {
		if event.Type == EventCommentAdded {
			var p CommentEventPayload
			if err := event.Decode(&p); err != nil {
				return err
			}
			l.Info().
				Int64("event_id", event.ID).
				Str("event", event.Type).
				Int64("comment_id", p.CommentID).
				Int64("item_id", p.ItemID).
				Int64("author_id", p.AuthorID).
				Msg("comment event")
			return nil
		}

		var p BookingEventPayload
		if err := event.Decode(&p); err != nil {
			return err
		}
		l.Info().
			Int64("event_id", event.ID).
			Str("event", event.Type).
			Int64("booking_id", p.BookingID).
			Int64("item_id", p.ItemID).
			Int64("booker_id", p.BookerID).
			Int64("owner_id", p.OwnerID).
			Int64("actor_id", p.ActorID).
			Str("status", p.Status).
			Msg("booking event")
		return nil
	}
}
