package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/fabguard/storefront-backend/pkg/enums"
)

// PartnerRegistration is a technician applying to join the network.
type PartnerRegistration struct {
	ID         uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Name       string           `gorm:"column:name;not null"`
	Phone      string           `gorm:"column:phone;not null"`
	Email      *string          `gorm:"column:email"`
	City       string           `gorm:"column:city;not null"`
	Skills     string           `gorm:"column:skills;not null"`
	Experience *string          `gorm:"column:experience"`
	Message    *string          `gorm:"column:message"`
	Status     enums.LeadStatus `gorm:"column:status;not null;default:'pending'"`
	CreatedAt  time.Time        `gorm:"column:created_at;autoCreateTime"`
}

// ContactSubmission is a message left through the contact form.
type ContactSubmission struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Name      string           `gorm:"column:name;not null"`
	Email     string           `gorm:"column:email;not null"`
	Phone     *string          `gorm:"column:phone"`
	Message   string           `gorm:"column:message;not null"`
	Status    enums.LeadStatus `gorm:"column:status;not null;default:'pending'"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
}
