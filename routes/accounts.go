package routes

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"puja-booking-server/database"
	"puja-booking-server/models"
	"puja-booking-server/types"
	"puja-booking-server/utils"
)

var errEmailTaken = types.Conflict("EMAIL_TAKEN", "An account with this email already exists")

// accountHandler manages client and agent accounts for admins
type accountHandler struct {
	db *gorm.DB
}

func registerAccountRoutes(admin *gin.RouterGroup, h *accountHandler) {
	clients := admin.Group("/clients")
	{
		clients.GET("", h.listClients)
		clients.POST("", h.createClient)
		clients.GET("/:id", h.getClient)
		clients.PUT("/:id", h.updateClient)
		clients.DELETE("/:id", h.deleteClient)
	}

	agents := admin.Group("/agents")
	{
		agents.GET("", h.listAgents)
		agents.POST("", h.createAgent)
		agents.GET("/:id", h.getAgent)
		agents.PUT("/:id", h.updateAgent)
		agents.DELETE("/:id", h.deleteAgent)
	}
}

type accountRequest struct {
	Name       string `json:"name" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Phone      string `json:"phone"`
	Password   string `json:"password"`
	LocationID *uint  `json:"locationId"`
	IsActive   *bool  `json:"isActive"`
}

// digest hashes the password, which is mandatory on create and optional on update
func (r accountRequest) digest(required bool) (string, error) {
	if r.Password == "" {
		if required {
			return "", types.Validation("MISSING_PASSWORD", "Password is required")
		}
		return "", nil
	}
	if len(r.Password) < 8 {
		return "", types.Validation("WEAK_PASSWORD", "Password must be at least 8 characters long")
	}
	return utils.HashPassword(r.Password)
}

func (h *accountHandler) listClients(c *gin.Context) {
	page, limit := pagination(c)
	query := h.db.WithContext(c.Request.Context()).Model(&models.Client{})
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(name) LIKE ? OR email LIKE ?", like, like)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		respondError(c, err)
		return
	}
	var clients []models.Client
	if err := query.Scopes(database.Paginate(page, limit)).Order("id DESC").Find(&clients).Error; err != nil {
		respondError(c, err)
		return
	}
	respondList(c, clients, page, limit, total)
}

func (h *accountHandler) getClient(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var client models.Client
	if err := h.first(c, &client, id, types.ErrClientNotFound); err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, "", client)
}

func (h *accountHandler) createClient(c *gin.Context) {
	var req accountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	hash, err := req.digest(true)
	if err != nil {
		respondError(c, err)
		return
	}

	client := models.Client{
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		Phone:        strings.TrimSpace(req.Phone),
		PasswordHash: hash,
		IsActive:     req.IsActive == nil || *req.IsActive,
	}
	if err := h.create(c, &client); err != nil {
		respondError(c, err)
		return
	}
	requestLog(c).Info().Uint("client_id", client.ID).Msg("client created")
	respondData(c, http.StatusCreated, "Client created successfully", client)
}

func (h *accountHandler) updateClient(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req accountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	hash, err := req.digest(false)
	if err != nil {
		respondError(c, err)
		return
	}

	var client models.Client
	if err := h.first(c, &client, id, types.ErrClientNotFound); err != nil {
		respondError(c, err)
		return
	}
	client.Name = strings.TrimSpace(req.Name)
	client.Email = req.Email
	client.Phone = strings.TrimSpace(req.Phone)
	if hash != "" {
		client.PasswordHash = hash
	}
	if req.IsActive != nil {
		client.IsActive = *req.IsActive
	}
	if err := h.save(c, &client); err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, "Client updated successfully", client)
}

func (h *accountHandler) deleteClient(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.delete(c, &models.Client{}, id, "client_id", types.ErrClientNotFound); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Client deleted successfully"})
}

func (h *accountHandler) listAgents(c *gin.Context) {
	page, limit := pagination(c)
	query := h.db.WithContext(c.Request.Context()).Model(&models.Agent{})
	if locationID := c.Query("locationId"); locationID != "" {
		query = query.Where("location_id = ?", locationID)
	}
	if c.Query("active") == "true" {
		query = query.Where("is_active = ?", true)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		respondError(c, err)
		return
	}
	var agents []models.Agent
	if err := query.Preload("Location").Scopes(database.Paginate(page, limit)).Order("id DESC").Find(&agents).Error; err != nil {
		respondError(c, err)
		return
	}
	respondList(c, agents, page, limit, total)
}

func (h *accountHandler) getAgent(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var agent models.Agent
	if err := h.first(c, &agent, id, types.ErrAgentNotFound); err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, "", agent)
}

func (h *accountHandler) createAgent(c *gin.Context) {
	var req accountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	hash, err := req.digest(true)
	if err != nil {
		respondError(c, err)
		return
	}

	agent := models.Agent{
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		Phone:        strings.TrimSpace(req.Phone),
		PasswordHash: hash,
		LocationID:   req.LocationID,
		IsActive:     req.IsActive == nil || *req.IsActive,
	}
	if err := h.create(c, &agent); err != nil {
		respondError(c, err)
		return
	}
	requestLog(c).Info().Uint("agent_id", agent.ID).Msg("agent created")
	respondData(c, http.StatusCreated, "Agent created successfully", agent)
}

func (h *accountHandler) updateAgent(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req accountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	hash, err := req.digest(false)
	if err != nil {
		respondError(c, err)
		return
	}

	var agent models.Agent
	if err := h.first(c, &agent, id, types.ErrAgentNotFound); err != nil {
		respondError(c, err)
		return
	}
	agent.Name = strings.TrimSpace(req.Name)
	agent.Email = req.Email
	agent.Phone = strings.TrimSpace(req.Phone)
	agent.LocationID = req.LocationID
	agent.Location = nil
	if hash != "" {
		agent.PasswordHash = hash
	}
	if req.IsActive != nil {
		agent.IsActive = *req.IsActive
	}
	if err := h.save(c, &agent); err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, "Agent updated successfully", agent)
}

func (h *accountHandler) deleteAgent(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.delete(c, &models.Agent{}, id, "agent_id", types.ErrAgentNotFound); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Agent deleted successfully"})
}

func (h *accountHandler) first(c *gin.Context, dest interface{}, id uint, notFound error) error {
	err := h.db.WithContext(c.Request.Context()).First(dest, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return err
}

func (h *accountHandler) create(c *gin.Context, value interface{}) error {
	err := h.db.WithContext(c.Request.Context()).Create(value).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errEmailTaken
	}
	return err
}

func (h *accountHandler) save(c *gin.Context, value interface{}) error {
	err := h.db.WithContext(c.Request.Context()).Omit("Location").Save(value).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errEmailTaken
	}
	return err
}

// delete refuses to remove accounts still referenced by bookings
func (h *accountHandler) delete(c *gin.Context, model interface{}, id uint, bookingColumn string, notFound error) error {
	ctx := c.Request.Context()
	var inUse int64
	if err := h.db.WithContext(ctx).Model(&models.Booking{}).Where(bookingColumn+" = ?", id).Count(&inUse).Error; err != nil {
		return err
	}
	if inUse > 0 {
		return types.Conflict("ACCOUNT_IN_USE", "Account has bookings; deactivate it instead")
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
