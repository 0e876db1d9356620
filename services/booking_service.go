package services

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"puja-booking-server/database"
	"puja-booking-server/metrics"
	"puja-booking-server/models"
	"puja-booking-server/types"
)

const fallbackAgentName = "Assigned Agent"

// Booking feed event names
const (
	EventBookingCreated = "booking_created"
	EventBookingUpdated = "booking_updated"
)

// BookingRepository is the persistence the booking service needs
type BookingRepository interface {
	Create(ctx context.Context, booking *models.Booking, build database.EventBuilder) (*models.Booking, error)
	FindByID(ctx context.Context, id uint) (*models.Booking, error)
	List(ctx context.Context, f database.BookingFilter) ([]models.Booking, int64, error)
	FindAndUpdate(ctx context.Context, id uint, mutate database.MutateFunc) (*models.Booking, error)
}

// Catalog resolves the services, pujas and agents a booking references
type Catalog interface {
	FindService(ctx context.Context, id uint) (*models.Service, error)
	FindPuja(ctx context.Context, id uint) (*models.Puja, error)
	FindAgent(ctx context.Context, id uint) (*models.Agent, error)
}

// Publisher pushes booking changes to live dashboards
type Publisher interface {
	Publish(event string, payload interface{})
}

// BookingService owns the booking lifecycle
type BookingService struct {
	bookings  BookingRepository
	catalog   Catalog
	coupons   *CouponService
	publisher Publisher
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewBookingService(bookings BookingRepository, catalog Catalog, coupons *CouponService, publisher Publisher, m *metrics.Metrics) *BookingService {
	return &BookingService{
		bookings:  bookings,
		catalog:   catalog,
		coupons:   coupons,
		publisher: publisher,
		metrics:   m,
		now:       time.Now,
	}
}

// CreateBookingInput is what a client submits to book a ritual
type CreateBookingInput struct {
	ServiceID     *uint  `json:"serviceId"`
	PujaID        *uint  `json:"pujaId"`
	LocationID    *uint  `json:"locationId"`
	PriceCategory string `json:"priceCategory"`
	CouponCode    string `json:"couponCode"`
	TransactionID string `json:"transactionId"`
	Notes         string `json:"notes"`
}

// Create prices and stores a new pending booking for clientID
func (s *BookingService) Create(ctx context.Context, clientID uint, in CreateBookingInput) (*models.Booking, error) {
	hasService := in.ServiceID != nil && *in.ServiceID != 0
	hasPuja := in.PujaID != nil && *in.PujaID != 0
	if hasService == hasPuja {
		return nil, types.Validation("INVALID_BOOKING_ITEM", "Exactly one of serviceId or pujaId is required")
	}

	booking := &models.Booking{
		ClientID:      clientID,
		LocationID:    in.LocationID,
		TransactionID: strings.TrimSpace(in.TransactionID),
		Notes:         in.Notes,
	}

	if hasService {
		service, err := s.catalog.FindService(ctx, *in.ServiceID)
		if err != nil {
			return nil, err
		}
		tier, ok := service.PriceFor(in.PriceCategory)
		if !ok {
			return nil, types.Validation("INVALID_PRICE_CATEGORY", "Unknown price category for this service")
		}
		booking.ServiceID = &service.ID
		booking.PriceCategory = tier.Label
		booking.OriginalPrice = tier.Price
		if booking.LocationID == nil {
			booking.LocationID = service.LocationID
		}
	} else {
		puja, err := s.catalog.FindPuja(ctx, *in.PujaID)
		if err != nil {
			return nil, err
		}
		booking.PujaID = &puja.ID
		booking.PriceCategory = strings.TrimSpace(in.PriceCategory)
		booking.OriginalPrice = puja.Price
	}
	booking.Price = booking.OriginalPrice

	if code := strings.TrimSpace(in.CouponCode); code != "" {
		result, err := s.coupons.Verify(ctx, code, booking.OriginalPrice)
		if err != nil {
			return nil, err
		}
		booking.CouponCode = result.Code
		booking.DiscountAmount = result.DiscountAmount
		booking.Price = result.NewTotal
	}

	created, err := s.bookings.Create(ctx, booking, func(b *models.Booking) ([]*models.OutboxEvent, error) {
		row, err := models.NewOutboxEvent(models.OutboxKindSheetSync, b.ID, models.NewBookingSheetRow(b))
		if err != nil {
			return nil, err
		}
		return []*models.OutboxEvent{row}, nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.BookingTransitioned(string(created.Status))
	s.publish(EventBookingCreated, created)
	log.Info().Uint("booking_id", created.ID).Uint("client_id", clientID).Float64("price", created.Price).Msg("booking created")
	return created, nil
}

// Update applies an admin patch atomically. When the patch completes the
// payment-verified and agent-assigned pair, the booking is confirmed and a
// confirmation email plus a sheet row are queued in the same transaction.
func (s *BookingService) Update(ctx context.Context, bookingID uint, patch BookingPatch) (*models.Booking, error) {
	if bookingID == 0 {
		return nil, types.ErrMissingBookingID
	}

	var agent *models.Agent
	if patch.AgentID != nil && *patch.AgentID != 0 {
		a, err := s.catalog.FindAgent(ctx, *patch.AgentID)
		if err != nil {
			return nil, err
		}
		if !a.IsActive {
			return nil, types.Validation("AGENT_INACTIVE", "Agent is inactive")
		}
		agent = a
	}

	var confirmed, changed bool
	updated, err := s.bookings.FindAndUpdate(ctx, bookingID, func(_ *gorm.DB, current models.Booking) (*models.Booking, []*models.OutboxEvent, error) {
		next, notify := ApplyBookingUpdate(current, patch)
		confirmed = notify
		changed = bookingChanged(current, next)
		if !changed {
			return nil, nil, nil
		}
		if !notify {
			return &next, nil, nil
		}

		now := s.now()
		next.ConfirmedAt = &now
		if agent != nil {
			next.Agent = agent
		}
		events, err := confirmationEvents(next)
		if err != nil {
			return nil, nil, err
		}
		return &next, events, nil
	})
	if err != nil {
		return nil, err
	}

	if confirmed {
		s.metrics.BookingTransitioned(string(models.BookingStatusConfirmed))
		log.Info().Uint("booking_id", updated.ID).Msg("booking confirmed")
	}
	if changed {
		s.publish(EventBookingUpdated, updated)
	}
	return updated, nil
}

func confirmationEvents(b models.Booking) ([]*models.OutboxEvent, error) {
	payload := models.ConfirmationPayload{
		BookingID: b.ID,
		AgentName: fallbackAgentName,
	}
	if b.Client != nil {
		payload.To = b.Client.Email
		payload.Name = b.Client.Name
	}
	if b.Agent != nil && strings.TrimSpace(b.Agent.Name) != "" {
		payload.AgentName = b.Agent.Name
	}

	mail, err := models.NewOutboxEvent(models.OutboxKindBookingConfirmed, b.ID, payload)
	if err != nil {
		return nil, err
	}
	row, err := models.NewOutboxEvent(models.OutboxKindSheetSync, b.ID, models.NewBookingSheetRow(&b))
	if err != nil {
		return nil, err
	}
	return []*models.OutboxEvent{mail, row}, nil
}

// Complete marks a confirmed booking as done
func (s *BookingService) Complete(ctx context.Context, bookingID uint) (*models.Booking, error) {
	return s.transition(ctx, bookingID, models.BookingStatusCompleted)
}

// Cancel cancels a pending or confirmed booking
func (s *BookingService) Cancel(ctx context.Context, bookingID uint) (*models.Booking, error) {
	return s.transition(ctx, bookingID, models.BookingStatusCancelled)
}

func (s *BookingService) transition(ctx context.Context, bookingID uint, target models.BookingStatus) (*models.Booking, error) {
	if bookingID == 0 {
		return nil, types.ErrMissingBookingID
	}
	updated, err := s.bookings.FindAndUpdate(ctx, bookingID, func(_ *gorm.DB, current models.Booking) (*models.Booking, []*models.OutboxEvent, error) {
		next, err := TransitionBooking(current, target)
		if err != nil {
			return nil, nil, err
		}
		row, err := models.NewOutboxEvent(models.OutboxKindSheetSync, next.ID, models.NewBookingSheetRow(&next))
		if err != nil {
			return nil, nil, err
		}
		return &next, []*models.OutboxEvent{row}, nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.BookingTransitioned(string(target))
	s.publish(EventBookingUpdated, updated)
	return updated, nil
}

// Get loads one booking as seen by the caller. Clients only see their own
// bookings and agents only the ones assigned to them.
func (s *BookingService) Get(ctx context.Context, id uint, role types.Role, subjectID uint) (*models.Booking, error) {
	booking, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	switch role {
	case types.RoleAdmin:
	case types.RoleClient:
		if booking.ClientID != subjectID {
			return nil, types.ErrBookingNotFound
		}
	case types.RoleAgent:
		if booking.AgentID == nil || *booking.AgentID != subjectID {
			return nil, types.ErrBookingNotFound
		}
	default:
		return nil, types.ErrBookingNotFound
	}
	return booking, nil
}

// List scopes the filter to what the caller may see
func (s *BookingService) List(ctx context.Context, role types.Role, subjectID uint, f database.BookingFilter) ([]models.Booking, int64, error) {
	switch role {
	case types.RoleClient:
		f.ClientID = subjectID
	case types.RoleAgent:
		f.AgentID = subjectID
	}
	return s.bookings.List(ctx, f)
}

func (s *BookingService) publish(event string, b *models.Booking) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(event, b)
}
