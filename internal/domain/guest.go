package domain

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RSVPStatus is the attendance answer of a guest.
type RSVPStatus string

const (
	RSVPPending  RSVPStatus = "pending"
	RSVPAccepted RSVPStatus = "accepted"
	RSVPDeclined RSVPStatus = "declined"
)

// Valid reports whether s is one of the known statuses.
func (s RSVPStatus) Valid() bool {
	switch s {
	case RSVPPending, RSVPAccepted, RSVPDeclined:
		return true
	}
	return false
}

// ManualCheckInLocation is recorded when staff toggle check-in without a location.
const ManualCheckInLocation = "Manual Check-in"

// Guest is one invitee of an event.
type Guest struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Title           string         `gorm:"column:title;size:20" json:"title"`
	Name            string         `gorm:"column:name;size:100;not null" json:"name"`
	Role            string         `gorm:"column:role;size:100" json:"role"`
	Organization    string         `gorm:"column:organization;size:200" json:"organization"`
	Tag             string         `gorm:"column:tag;size:50" json:"tag"`
	Email           *string        `gorm:"column:email;size:100" json:"email"`
	Phone           *string        `gorm:"column:phone;size:20" json:"phone"`
	QRPayload       datatypes.JSON `gorm:"column:qr_code" json:"qr_code,omitempty"`
	QRImagePath     string         `gorm:"column:qr_image_path;size:300" json:"qr_image_path,omitempty"`
	RSVPStatus      RSVPStatus     `gorm:"column:rsvp_status;size:20;not null;default:pending" json:"rsvp_status"`
	RSVPNotes       string         `gorm:"column:rsvp_notes;type:text" json:"rsvp_notes"`
	RSVPResponseAt  *time.Time     `gorm:"column:rsvp_response_date" json:"rsvp_response_date"`
	CheckedIn       bool           `gorm:"column:checked_in;not null;default:false" json:"checked_in"`
	CheckInAt       *time.Time     `gorm:"column:check_in_time" json:"check_in_time"`
	CheckInLocation *string        `gorm:"column:check_in_location;size:100" json:"check_in_location"`
	EventID         uint           `gorm:"column:event_id;not null;index" json:"event_id"`
	Event           *Event         `json:"-"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Guest) TableName() string {
	return "guests"
}

// BeforeCreate defaults the RSVP status.
func (g *Guest) BeforeCreate(tx *gorm.DB) error {
	if g.RSVPStatus == "" {
		g.RSVPStatus = RSVPPending
	}
	return nil
}

// MarkCheckedIn sets the check-in flag together with its timestamp and location.
func (g *Guest) MarkCheckedIn(at time.Time, location string) {
	if location == "" {
		location = ManualCheckInLocation
	}
	g.CheckedIn = true
	g.CheckInAt = &at
	g.CheckInLocation = &location
}

// ClearCheckIn resets the flag and both dependent fields.
func (g *Guest) ClearCheckIn() {
	g.CheckedIn = false
	g.CheckInAt = nil
	g.CheckInLocation = nil
}
