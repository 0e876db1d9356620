package main

import (
	"context"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"puja-booking-server/models"
)

// seedCatalog fills an empty database with a starter catalog. It does
// nothing once any service or puja exists.
func seedCatalog(ctx context.Context, db *gorm.DB) error {
	var existing int64
	if err := db.WithContext(ctx).Model(&models.Service{}).Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		log.Info().Msg("catalog already seeded")
		return nil
	}
	if err := db.WithContext(ctx).Model(&models.Puja{}).Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		log.Info().Msg("catalog already seeded")
		return nil
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locations := []models.Location{
			{Name: "Kashi Vishwanath Temple", City: "Varanasi", State: "Uttar Pradesh", IsActive: true},
			{Name: "Trimbakeshwar Temple", City: "Nashik", State: "Maharashtra", IsActive: true},
			{Name: "Ujjain Mahakal", City: "Ujjain", State: "Madhya Pradesh", IsActive: true},
		}
		if err := tx.Create(&locations).Error; err != nil {
			return err
		}

		services := []models.Service{
			{
				Name:        "Rudrabhishek",
				Description: "Abhishek of Lord Shiva with Vedic chanting",
				LocationID:  &locations[0].ID,
				IsActive:    true,
				Prices: []models.ServicePrice{
					{Label: "Basic", Price: 2100},
					{Label: "Premium", Price: 5100},
				},
			},
			{
				Name:        "Kaal Sarp Dosh Nivaran",
				Description: "Remedial puja performed at Trimbakeshwar",
				LocationID:  &locations[1].ID,
				IsActive:    true,
				Prices: []models.ServicePrice{
					{Label: "Basic", Price: 3100},
					{Label: "Premium", Price: 7100},
				},
			},
			{
				Name:        "Mahamrityunjaya Jaap",
				Description: "Sankalp and jaap by a team of pandits",
				LocationID:  &locations[2].ID,
				IsActive:    true,
				Prices: []models.ServicePrice{
					{Label: "1.25 Lakh Jaap", Price: 11000},
				},
			},
		}
		if err := tx.Create(&services).Error; err != nil {
			return err
		}

		pujas := []models.Puja{
			{Name: "Satyanarayan Katha", Description: "Katha with havan and prasad", Price: 1100, IsActive: true},
			{Name: "Ganesh Puja", Description: "Puja for new beginnings", Price: 99, IsActive: true},
			{Name: "Navagraha Shanti", Description: "Puja for the nine planets", Price: 2100, IsActive: true},
		}
		if err := tx.Create(&pujas).Error; err != nil {
			return err
		}

		log.Info().Int("locations", len(locations)).Int("services", len(services)).Int("pujas", len(pujas)).Msg("catalog seeded")
		return nil
	})
}
