package models

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"puja-booking-server/types"
)

// Account is implemented by every table that can sign in
type Account interface {
	AccountID() uint
	AccountRole() types.Role
	AccountName() string
	AccountEmail() string
	PasswordDigest() string
	Active() bool
}

// Admin is a back-office staff member
type Admin struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"size:255;not null"`
	Email        string    `json:"email" gorm:"size:255;uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"size:255;not null"`
	IsActive     bool      `json:"isActive" gorm:"not null"`
	CreatedAt    time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt    time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for the Admin model
func (Admin) TableName() string {
	return "admins"
}

// Client books rituals on the platform
type Client struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"size:255;not null"`
	Email        string    `json:"email" gorm:"size:255;uniqueIndex;not null"`
	Phone        string    `json:"phone" gorm:"size:20"`
	PasswordHash string    `json:"-" gorm:"size:255;not null"`
	IsActive     bool      `json:"isActive" gorm:"not null"`
	CreatedAt    time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt    time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for the Client model
func (Client) TableName() string {
	return "clients"
}

// Agent is a field agent assigned to confirmed bookings
type Agent struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"size:255;not null"`
	Email        string    `json:"email" gorm:"size:255;uniqueIndex;not null"`
	Phone        string    `json:"phone" gorm:"size:20"`
	PasswordHash string    `json:"-" gorm:"size:255;not null"`
	LocationID   *uint     `json:"locationId" gorm:"index"`
	IsActive     bool      `json:"isActive" gorm:"not null"`
	CreatedAt    time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt    time.Time `json:"updatedAt" gorm:"autoUpdateTime"`

	Location *Location `json:"location,omitempty" gorm:"foreignKey:LocationID"`
}

// TableName specifies the table name for the Agent model
func (Agent) TableName() string {
	return "agents"
}

// NormalizeEmail lowercases and trims an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (a *Admin) BeforeSave(tx *gorm.DB) error {
	a.Email = NormalizeEmail(a.Email)
	return nil
}

func (c *Client) BeforeSave(tx *gorm.DB) error {
	c.Email = NormalizeEmail(c.Email)
	return nil
}

func (a *Agent) BeforeSave(tx *gorm.DB) error {
	a.Email = NormalizeEmail(a.Email)
	return nil
}

func (a *Admin) AccountID() uint         { return a.ID }
func (a *Admin) AccountRole() types.Role { return types.RoleAdmin }
func (a *Admin) AccountName() string     { return a.Name }
func (a *Admin) AccountEmail() string    { return a.Email }
func (a *Admin) PasswordDigest() string  { return a.PasswordHash }
func (a *Admin) Active() bool            { return a.IsActive }

func (c *Client) AccountID() uint         { return c.ID }
func (c *Client) AccountRole() types.Role { return types.RoleClient }
func (c *Client) AccountName() string     { return c.Name }
func (c *Client) AccountEmail() string    { return c.Email }
func (c *Client) PasswordDigest() string  { return c.PasswordHash }
func (c *Client) Active() bool            { return c.IsActive }

func (a *Agent) AccountID() uint         { return a.ID }
func (a *Agent) AccountRole() types.Role { return types.RoleAgent }
func (a *Agent) AccountName() string     { return a.Name }
func (a *Agent) AccountEmail() string    { return a.Email }
func (a *Agent) PasswordDigest() string  { return a.PasswordHash }
func (a *Agent) Active() bool            { return a.IsActive }

// NewAccount returns an empty account model for the role, or nil for unknown roles
func NewAccount(role types.Role) Account {
	switch role {
	case types.RoleAdmin:
		return &Admin{}
	case types.RoleAgent:
		return &Agent{}
	case types.RoleClient:
		return &Client{}
	default:
		return nil
	}
}
