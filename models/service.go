package models

import (
	"strings"
	"time"
)

// Location is a temple or site where rituals are performed
type Location struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"type:varchar(200);not null"`
	City      string    `json:"city" gorm:"type:varchar(100)"`
	State     string    `json:"state" gorm:"type:varchar(100)"`
	Address   string    `json:"address" gorm:"type:varchar(500)"`
	IsActive  bool      `json:"isActive" gorm:"not null"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the table name for the Location model
func (Location) TableName() string {
	return "locations"
}

// Service is a ritual offered at a location, priced per category
type Service struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"type:varchar(200);not null"`
	Description string    `json:"description" gorm:"type:text"`
	LocationID  *uint     `json:"locationId" gorm:"index"`
	ImageURL    string    `json:"imageUrl" gorm:"type:varchar(255)"`
	IsActive    bool      `json:"isActive" gorm:"not null"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	Location *Location     `json:"location,omitempty" gorm:"foreignKey:LocationID"`
	Prices   []ServicePrice `json:"priceCategories" gorm:"foreignKey:ServiceID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the Service model
func (Service) TableName() string {
	return "services"
}

// ServicePrice is one labelled price tier of a service, e.g. "Basic" or "Premium"
type ServicePrice struct {
	ID        uint    `json:"id" gorm:"primaryKey"`
	ServiceID uint    `json:"serviceId" gorm:"not null;uniqueIndex:idx_service_price_label"`
	Label     string  `json:"label" gorm:"type:varchar(100);not null;uniqueIndex:idx_service_price_label"`
	Price     float64 `json:"price" gorm:"type:decimal(10,2);not null"`
}

// TableName specifies the table name for the ServicePrice model
func (ServicePrice) TableName() string {
	return "service_prices"
}

// PriceFor returns the tier matching label, ignoring case
func (s *Service) PriceFor(label string) (ServicePrice, bool) {
	for _, p := range s.Prices {
		if strings.EqualFold(p.Label, strings.TrimSpace(label)) {
			return p, true
		}
	}
	return ServicePrice{}, false
}

// Puja is a standalone ritual with a single price
type Puja struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"type:varchar(200);not null"`
	Description string    `json:"description" gorm:"type:text"`
	Price       float64   `json:"price" gorm:"type:decimal(10,2);not null"`
	ImageURL    string    `json:"imageUrl" gorm:"type:varchar(255)"`
	IsActive    bool      `json:"isActive" gorm:"not null"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TableName specifies the table name for the Puja model
func (Puja) TableName() string {
	return "pujas"
}

// Pandit performs rituals; managed by admins, not a login role
type Pandit struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	Name            string    `json:"name" gorm:"type:varchar(200);not null"`
	Phone           string    `json:"phone" gorm:"type:varchar(20)"`
	Expertise       string    `json:"expertise" gorm:"type:varchar(500)"`
	ExperienceYears int       `json:"experienceYears"`
	ImageURL        string    `json:"imageUrl" gorm:"type:varchar(255)"`
	LocationID      *uint     `json:"locationId" gorm:"index"`
	IsActive        bool      `json:"isActive" gorm:"not null"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`

	Location *Location `json:"location,omitempty" gorm:"foreignKey:LocationID"`
}

// TableName specifies the table name for the Pandit model
func (Pandit) TableName() string {
	return "pandits"
}
