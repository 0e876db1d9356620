package routes

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"puja-booking-server/database"
	"puja-booking-server/middleware"
	"puja-booking-server/models"
	"puja-booking-server/types"
)

var (
	errLocationNotFound = types.NotFound("LOCATION_NOT_FOUND", "Location not found")
	errPanditNotFound   = types.NotFound("PANDIT_NOT_FOUND", "Pandit not found")
	errInUse            = types.Conflict("IN_USE", "Item is referenced by bookings; deactivate it instead")
)

// ImageUploader stores an uploaded photo and returns its public URL
type ImageUploader interface {
	UploadImage(ctx context.Context, header *multipart.FileHeader, folder string) (string, error)
}

// catalogHandler serves locations, services, pujas and pandits
type catalogHandler struct {
	db     *gorm.DB
	images ImageUploader
}

func registerCatalogRoutes(public, admin *gin.RouterGroup, h *catalogHandler) {
	public.GET("/locations", h.listLocations)
	public.GET("/services", h.listServices)
	public.GET("/services/:id", h.getService)
	public.GET("/pujas", h.listPujas)
	public.GET("/pujas/:id", h.getPuja)
	public.GET("/pandits", h.listPandits)

	admin.POST("/locations", h.createLocation)
	admin.PUT("/locations/:id", h.updateLocation)
	admin.DELETE("/locations/:id", h.deleteLocation)

	admin.POST("/services", h.createService)
	admin.PUT("/services/:id", h.updateService)
	admin.DELETE("/services/:id", h.deleteService)

	admin.POST("/pujas", h.createPuja)
	admin.PUT("/pujas/:id", h.updatePuja)
	admin.DELETE("/pujas/:id", h.deletePuja)
	admin.POST("/pujas/:id/photo", h.uploadPujaPhoto)

	admin.POST("/pandits", h.createPandit)
	admin.GET("/pandits/:id", h.getPandit)
	admin.PUT("/pandits/:id", h.updatePandit)
	admin.DELETE("/pandits/:id", h.deletePandit)
	admin.POST("/pandits/:id/photo", h.uploadPanditPhoto)
}

// visible limits public listings to active rows unless an admin asks for all
func visible(c *gin.Context, query *gorm.DB) *gorm.DB {
	if middleware.RoleOf(c) == types.RoleAdmin && c.Query("all") == "true" {
		return query
	}
	return query.Where("is_active = ?", true)
}

func (h *catalogHandler) list(c *gin.Context, model interface{}, dest interface{}, filter func(*gorm.DB) *gorm.DB, preload ...string) {
	page, limit := pagination(c)
	query := visible(c, h.db.WithContext(c.Request.Context()).Model(model))
	if filter != nil {
		query = filter(query)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		respondError(c, err)
		return
	}
	for _, p := range preload {
		query = query.Preload(p)
	}
	if err := query.Scopes(database.Paginate(page, limit)).Order("name ASC").Find(dest).Error; err != nil {
		respondError(c, err)
		return
	}
	respondList(c, dest, page, limit, total)
}

func (h *catalogHandler) first(ctx context.Context, dest interface{}, id uint, notFound error, preload ...string) error {
	query := h.db.WithContext(ctx)
	for _, p := range preload {
		query = query.Preload(p)
	}
	err := query.First(dest, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return err
}

// remove deletes id unless a booking still points at it
func (h *catalogHandler) remove(ctx context.Context, model interface{}, id uint, bookingColumn string, notFound error) error {
	if bookingColumn != "" {
		var inUse int64
		if err := h.db.WithContext(ctx).Model(&models.Booking{}).Where(bookingColumn+" = ?", id).Count(&inUse).Error; err != nil {
			return err
		}
		if inUse > 0 {
			return errInUse
		}
	}
	res := h.db.WithContext(ctx).Delete(model, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound
	}
	return nil
}

func byLocation(c *gin.Context) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if locationID := c.Query("locationId"); locationID != "" {
			return db.Where("location_id = ?", locationID)
		}
		return db
	}
}

// Locations

type locationRequest struct {
	Name     string `json:"name" binding:"required"`
	City     string `json:"city"`
	State    string `json:"state"`
	Address  string `json:"address"`
	IsActive *bool  `json:"isActive"`
}

func (r locationRequest) applyTo(l *models.Location) {
	l.Name = strings.TrimSpace(r.Name)
	l.City = strings.TrimSpace(r.City)
	l.State = strings.TrimSpace(r.State)
	l.Address = strings.TrimSpace(r.Address)
	if r.IsActive != nil {
		l.IsActive = *r.IsActive
	}
}

func (h *catalogHandler) listLocations(c *gin.Context) {
	var locations []models.Location
	h.list(c, &models.Location{}, &locations, nil)
}

func (h *catalogHandler) createLocation(c *gin.Context) {
	var req locationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	location := models.Location{IsActive: true}
	req.applyTo(&location)
	if err := h.db.WithContext(c.Request.Context()).Create(&location).Error; err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, "Location created successfully", location)
}

func (h *catalogHandler) updateLocation(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req locationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	var location models.Location
	if err := h.first(c.Request.Context(), &location, id, errLocationNotFound); err != nil {
		respondError(c, err)
		return
	}
	req.applyTo(&location)
	if err := h.db.WithContext(c.Request.Context()).Save(&location).Error; err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, "Location updated successfully", location)
}

func (h *catalogHandler) deleteLocation(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.remove(c.Request.Context(), &models.Location{}, id, "location_id", errLocationNotFound); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Location deleted successfully"})
}

// Services

type priceCategoryRequest struct {
	Label string  `json:"label" binding:"required"`
	Price float64 `json:"price" binding:"gte=0"`
}

type serviceRequest struct {
	Name            string                 `json:"name" binding:"required"`
	Description     string                 `json:"description"`
	LocationID      *uint                  `json:"locationId"`
	ImageURL        string                 `json:"imageUrl"`
	IsActive        *bool                  `json:"isActive"`
	PriceCategories []priceCategoryRequest `json:"priceCategories" binding:"required,min=1,dive"`
}

func (r serviceRequest) prices() ([]models.ServicePrice, error) {
	seen := make(map[string]bool, len(r.PriceCategories))
	prices := make([]models.ServicePrice, 0, len(r.PriceCategories))
	for _, p := range r.PriceCategories {
		label := strings.TrimSpace(p.Label)
		key := strings.ToLower(label)
		if label == "" || seen[key] {
			return nil, types.Validation("INVALID_PRICE_CATEGORY", fmt.Sprintf("Duplicate or empty price category %q", p.Label))
		}
		seen[key] = true
		prices = append(prices, models.ServicePrice{Label: label, Price: p.Price})
	}
	return prices, nil
}

func (h *catalogHandler) listServices(c *gin.Context) {
	var services []models.Service
	h.list(c, &models.Service{}, &services, byLocation(c), "Prices", "Location")
}

func (h *catalogHandler) getService(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var service models.Service
	if err := h.first(c.Request.Context(), &service, id, types.ErrServiceNotFound, "Prices", "Location"); err != nil {
		respondError(c, err)
		return
	}
	if !service.IsActive && middleware.RoleOf(c) != types.RoleAdmin {
		respondError(c, types.ErrServiceNotFound)
		return
	}
	respondData(c, http.StatusOK, "", service)
}

func (h *catalogHandler) createService(c *gin.Context) {
	var req serviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	prices, err := req.prices()
	if err != nil {
		respondError(c, err)
		return
	}

	service := models.Service{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		LocationID:  req.LocationID,
		ImageURL:    req.ImageURL,
		IsActive:    req.IsActive == nil || *req.IsActive,
		Prices:      prices,
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&service).Error; err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, "Service created successfully", service)
}

// updateService replaces the service fields and its whole price list
func (h *catalogHandler) updateService(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req serviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	prices, err := req.prices()
	if err != nil {
		respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	var service models.Service
	if err := h.first(ctx, &service, id, types.ErrServiceNotFound); err != nil {
		respondError(c, err)
		return
	}

	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		service.Name = strings.TrimSpace(req.Name)
		service.Description = req.Description
		service.LocationID = req.LocationID
		service.ImageURL = req.ImageURL
		if req.IsActive != nil {
			service.IsActive = *req.IsActive
		}
		if err := tx.Omit("Prices", "Location").Save(&service).Error; err != nil {
			return err
		}
		if err := tx.Where("service_id = ?", service.ID).Delete(&models.ServicePrice{}).Error; err != nil {
			return err
		}
		for i := range prices {
			prices[i].ServiceID = service.ID
		}
		return tx.Create(&prices).Error
	})
	if err != nil {
		respondError(c, err)
		return
	}
	service.Prices = prices
	respondData(c, http.StatusOK, "Service updated successfully", service)
}

func (h *catalogHandler) deleteService(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	var inUse int64
	if err := h.db.WithContext(ctx).Model(&models.Booking{}).Where("service_id = ?", id).Count(&inUse).Error; err != nil {
		respondError(c, err)
		return
	}
	if inUse > 0 {
		respondError(c, errInUse)
		return
	}

	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("service_id = ?", id).Delete(&models.ServicePrice{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Service{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return types.ErrServiceNotFound
		}
		return nil
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Service deleted successfully"})
}

// Pujas

type pujaRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" binding:"gte=0"`
	ImageURL    string  `json:"imageUrl"`
	IsActive    *bool   `json:"isActive"`
}

func (r pujaRequest) applyTo(p *models.Puja) {
	p.Name = strings.TrimSpace(r.Name)
	p.Description = r.Description
	p.Price = r.Price
	p.ImageURL = r.ImageURL
	if r.IsActive != nil {
		p.IsActive = *r.IsActive
	}
}

func (h *catalogHandler) listPujas(c *gin.Context) {
	var pujas []models.Puja
	h.list(c, &models.Puja{}, &pujas, nil)
}

func (h *catalogHandler) getPuja(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var puja models.Puja
	if err := h.first(c.Request.Context(), &puja, id, types.ErrPujaNotFound); err != nil {
		respondError(c, err)
		return
	}
	if !puja.IsActive && middleware.RoleOf(c) != types.RoleAdmin {
		respondError(c, types.ErrPujaNotFound)
		return
	}
	respondData(c, http.StatusOK, "", puja)
}

func (h *catalogHandler) createPuja(c *gin.Context) {
	var req pujaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	puja := models.Puja{IsActive: true}
	req.applyTo(&puja)
	if err := h.db.WithContext(c.Request.Context()).Create(&puja).Error; err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, "Puja created successfully", puja)
}

func (h *catalogHandler) updatePuja(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req pujaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	var puja models.Puja
	if err := h.first(c.Request.Context(), &puja, id, types.ErrPujaNotFound); err != nil {
		respondError(c, err)
		return
	}
	req.applyTo(&puja)
	if err := h.db.WithContext(c.Request.Context()).Save(&puja).Error; err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, "Puja updated successfully", puja)
}

func (h *catalogHandler) deletePuja(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.remove(c.Request.Context(), &models.Puja{}, id, "puja_id", types.ErrPujaNotFound); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Puja deleted successfully"})
}

func (h *catalogHandler) uploadPujaPhoto(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var puja models.Puja
	if err := h.first(c.Request.Context(), &puja, id, types.ErrPujaNotFound); err != nil {
		respondError(c, err)
		return
	}
	url, ok := h.upload(c, fmt.Sprintf("pujas/%d", id))
	if !ok {
		return
	}
	if err := h.db.WithContext(c.Request.Context()).Model(&puja).Update("image_url", url).Error; err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, "Photo uploaded successfully", gin.H{"imageUrl": url})
}

// Pandits

type panditRequest struct {
	Name            string `json:"name" binding:"required"`
	Phone           string `json:"phone"`
	Expertise       string `json:"expertise"`
	ExperienceYears int    `json:"experienceYears" binding:"gte=0"`
	ImageURL        string `json:"imageUrl"`
	LocationID      *uint  `json:"locationId"`
	IsActive        *bool  `json:"isActive"`
}

func (r panditRequest) applyTo(p *models.Pandit) {
	p.Name = strings.TrimSpace(r.Name)
	p.Phone = strings.TrimSpace(r.Phone)
	p.Expertise = r.Expertise
	p.ExperienceYears = r.ExperienceYears
	p.ImageURL = r.ImageURL
	p.LocationID = r.LocationID
	p.Location = nil
	if r.IsActive != nil {
		p.IsActive = *r.IsActive
	}
}

func (h *catalogHandler) listPandits(c *gin.Context) {
	var pandits []models.Pandit
	h.list(c, &models.Pandit{}, &pandits, byLocation(c), "Location")
}

func (h *catalogHandler) getPandit(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var pandit models.Pandit
	if err := h.first(c.Request.Context(), &pandit, id, errPanditNotFound, "Location"); err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, "", pandit)
}

func (h *catalogHandler) createPandit(c *gin.Context) {
	var req panditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	pandit := models.Pandit{IsActive: true}
	req.applyTo(&pandit)
	if err := h.db.WithContext(c.Request.Context()).Create(&pandit).Error; err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, "Pandit created successfully", pandit)
}

func (h *catalogHandler) updatePandit(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req panditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	var pandit models.Pandit
	if err := h.first(c.Request.Context(), &pandit, id, errPanditNotFound); err != nil {
		respondError(c, err)
		return
	}
	req.applyTo(&pandit)
	if err := h.db.WithContext(c.Request.Context()).Omit("Location").Save(&pandit).Error; err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, "Pandit updated successfully", pandit)
}

func (h *catalogHandler) deletePandit(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.remove(c.Request.Context(), &models.Pandit{}, id, "", errPanditNotFound); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Pandit deleted successfully"})
}

func (h *catalogHandler) uploadPanditPhoto(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var pandit models.Pandit
	if err := h.first(c.Request.Context(), &pandit, id, errPanditNotFound); err != nil {
		respondError(c, err)
		return
	}
	url, ok := h.upload(c, fmt.Sprintf("pandits/%d", id))
	if !ok {
		return
	}
	if err := h.db.WithContext(c.Request.Context()).Model(&pandit).Update("image_url", url).Error; err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, "Photo uploaded successfully", gin.H{"imageUrl": url})
}

// upload reads the "photo" form file and stores it under folder
func (h *catalogHandler) upload(c *gin.Context, folder string) (string, bool) {
	if h.images == nil {
		respondError(c, types.ErrMediaUnavailable)
		return "", false
	}
	header, err := c.FormFile("photo")
	if err != nil {
		respondError(c, types.ErrInvalidImage)
		return "", false
	}
	url, err := h.images.UploadImage(c.Request.Context(), header, folder)
	if err != nil {
		var appErr *types.AppError
		if !errors.As(err, &appErr) {
			requestLog(c).Error().Err(err).Str("folder", folder).Msg("image upload failed")
			err = types.ErrImageUpload
		}
		respondError(c, err)
		return "", false
	}
	return url, true
}
