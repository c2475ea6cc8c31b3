package domain

import (
	"time"

	"gorm.io/gorm"
)

// DefaultMaxGuests is the capacity assigned when an event is created without one.
const DefaultMaxGuests = 100

// Event is the container guests belong to.
type Event struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"column:name;size:255;not null" json:"name"`
	Description string         `gorm:"column:description;type:text" json:"description"`
	EventDate   time.Time      `gorm:"column:event_date;not null" json:"event_date"`
	Location    string         `gorm:"column:location;size:255" json:"location"`
	Address     string         `gorm:"column:address;size:255" json:"address"`
	Agenda      string         `gorm:"column:agenda;type:text" json:"agenda"`
	MaxGuests   int            `gorm:"column:max_guests;not null;default:100" json:"max_guests"`
	IsActive    bool           `gorm:"column:is_active;not null;default:true" json:"is_active"`
	Guests      []Guest        `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Event) TableName() string {
	return "events"
}

// BeforeCreate applies the capacity default.
func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.MaxGuests <= 0 {
		e.MaxGuests = DefaultMaxGuests
	}
	return nil
}
