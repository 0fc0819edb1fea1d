package models

import "time"

type BookingStatus string

const (
	StatusWaiting  BookingStatus = "WAITING"
	StatusApproved BookingStatus = "APPROVED"
	StatusRejected BookingStatus = "REJECTED"
	// StatusCanceled is part of the vocabulary but no operation produces it.
	StatusCanceled BookingStatus = "CANCELED"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case StatusWaiting, StatusApproved, StatusRejected, StatusCanceled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed from s.
func (s BookingStatus) Terminal() bool {
	return s != StatusWaiting
}

type Booking struct {
	ID       int64         `json:"id"`
	Start    time.Time     `json:"start"`
	End      time.Time     `json:"end"`
	ItemID   int64         `json:"item_id"`
	BookerID int64         `json:"booker_id"`
	Status   BookingStatus `json:"status"`
	Version  int64         `json:"version"`
}

// BookingRow is a booking joined with its item and booker. Item or Booker
// is nil when the referenced record no longer resolves.
type BookingRow struct {
	Booking
	Item   *ItemRef
	Booker *UserRef
}

type UserRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name,omitempty"`
}

type ItemRef struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	OwnerID int64  `json:"-"`
}

// BookingDetails is the outward representation of a booking.
type BookingDetails struct {
	ID     int64         `json:"id"`
	Start  time.Time     `json:"start"`
	End    time.Time     `json:"end"`
	Status BookingStatus `json:"status"`
	Booker UserRef       `json:"booker"`
	Item   ItemRef       `json:"item"`
}

// BookingInfo is the short form attached to owner item views.
type BookingInfo struct {
	ID       int64     `json:"id"`
	BookerID int64     `json:"bookerId"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}

func NewBookingInfo(b *Booking) *BookingInfo {
	if b == nil {
		return nil
	}
	return &BookingInfo{ID: b.ID, BookerID: b.BookerID, Start: b.Start, End: b.End}
}

// BookingFilter selects bookings in the store. Zero fields are not applied.
type BookingFilter struct {
	BookerID    int64
	OwnerID     int64
	ItemID      int64
	Status      BookingStatus
	StartBefore *time.Time
	StartAfter  *time.Time
	EndBefore   *time.Time
	EndAfter    *time.Time
}
