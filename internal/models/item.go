package models

type Item struct {
	ID          int64  `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Available   bool   `json:"available" yaml:"available"`
	OwnerID     int64  `json:"ownerId" yaml:"owner_id"`
	RequestID   *int64 `json:"requestId,omitempty" yaml:"request_id,omitempty"`
}

// ItemPatch carries a partial item update; nil fields are left untouched.
type ItemPatch struct {
	Name        *string
	Description *string
	Available   *bool
}

// Apply copies the set fields of p onto item.
func (p ItemPatch) Apply(item *Item) {
	if p.Name != nil {
		item.Name = *p.Name
	}
	if p.Description != nil {
		item.Description = *p.Description
	}
	if p.Available != nil {
		item.Available = *p.Available
	}
}

type ItemRole string

const (
	RoleOwner  ItemRole = "owner"
	RoleBooker ItemRole = "booker"
)

// OwnerItemView is what the owner sees: the item, its last and next
// bookings relative to the request time, and its comments.
type OwnerItemView struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Available   bool          `json:"available"`
	RequestID   *int64        `json:"requestId,omitempty"`
	LastBooking *BookingInfo  `json:"lastBooking"`
	NextBooking *BookingInfo  `json:"nextBooking"`
	Comments    []CommentView `json:"comments"`
}

// BookerItemView is what anyone other than the owner sees.
type BookerItemView struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Available   bool          `json:"available"`
	RequestID   *int64        `json:"requestId,omitempty"`
	Comments    []CommentView `json:"comments"`
}

// ItemView holds exactly one of Owner or Booker, chosen by Role.
type ItemView struct {
	Role   ItemRole
	Owner  *OwnerItemView
	Booker *BookerItemView
}

// Payload returns the populated variant for serialization.
func (v ItemView) Payload() interface{} {
	if v.Role == RoleOwner {
		return v.Owner
	}
	return v.Booker
}

// Projection is the pair of bookings surrounding a point in time.
type Projection struct {
	Last *BookingInfo `json:"lastBooking"`
	Next *BookingInfo `json:"nextBooking"`
}
