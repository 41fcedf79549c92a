package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"warelay/internal/entities"
	"warelay/internal/interfaces"
	"warelay/internal/repository"
	"warelay/internal/usecases"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	messageService   *usecases.MessageService
	broadcastService *usecases.BroadcastService
	ledger           interfaces.MessageLedger
	contacts         interfaces.ContactStore
	configRepo       *repository.ConfigRepository
	verifyToken      string
}

func NewHandler(
	service *usecases.MessageService,
	broadcast *usecases.BroadcastService,
	ledger interfaces.MessageLedger,
	contacts interfaces.ContactStore,
	configRepo *repository.ConfigRepository,
	verifyToken string,
) *Handler {
	return &Handler{
		messageService:   service,
		broadcastService: broadcast,
		ledger:           ledger,
		contacts:         contacts,
		configRepo:       configRepo,
		verifyToken:      verifyToken,
	}
}

func SetupRoutes(r *gin.Engine, h *Handler, auth *usecases.AuthUsecase, middleware *Middleware) {
	// Apply Security Middleware
	r.Use(SecurityHeaders())
	r.Use(RequestSizeLimiter(1 << 20)) // 1MB max request size
	r.Use(middleware.CORSMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	// Provider webhook (public, token-verified by the GET challenge)
	r.GET("/webhook", h.VerifyWebhook)
	r.POST("/webhook", h.HandleWebhook)

	// Public Auth Routes
	authGroup := r.Group("/api/auth")
	{
		authGroup.POST("/login", func(c *gin.Context) {
			var loginReq struct {
				Username string `json:"username"`
				Password string `json:"password"`
			}
			if err := c.ShouldBindJSON(&loginReq); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
				return
			}
			token, err := auth.Login(c.Request.Context(), loginReq.Username, loginReq.Password)
			if err != nil {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"token": token})
		})

		authGroup.POST("/register", func(c *gin.Context) {
			var regReq struct {
				Username string `json:"username"`
				Password string `json:"password"`
			}
			if err := c.ShouldBindJSON(&regReq); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
				return
			}
			if len(regReq.Username) < 3 || len(regReq.Password) < 6 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid username or password (min 6 chars)"})
				return
			}
			if err := auth.Register(c.Request.Context(), regReq.Username, regReq.Password); err != nil {
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusCreated, gin.H{"status": "registered"})
		})
	}

	// Protected Operator Routes
	api := r.Group("/api")
	api.Use(middleware.AuthRequired())
	api.Use(middleware.RateLimitPerUser(5, 10))
	{
		api.GET("/messages", h.QueryMessages)
		api.GET("/contacts", h.ListContacts)
		api.GET("/contacts/:phone", h.GetContact)
		api.PUT("/contacts/:phone/name", h.SetContactName)
		api.POST("/broadcast", h.Broadcast)
		api.GET("/config", h.GetAllConfigs)
		api.POST("/config", middleware.AdminRequired(), h.SetConfig)
	}
}

// VerifyWebhook answers the provider's subscription challenge:
// GET /webhook?hub.mode=subscribe&hub.verify_token=TOKEN&hub.challenge=CHALLENGE
func (h *Handler) VerifyWebhook(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && token == h.verifyToken {
		c.String(http.StatusOK, challenge)
		return
	}
	c.String(http.StatusForbidden, "verification failed")
}

// HandleWebhook processes one provider delivery synchronously. Only a
// malformed payload is a client error; downstream failures are logged but
// still acknowledged so the provider does not redeliver the whole event.
func (h *Handler) HandleWebhook(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	if err := h.messageService.ProcessEvent(c.Request.Context(), raw); err != nil {
		if errors.Is(err, usecases.ErrInvalidPayload) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}
		// Send failures surface to the operator through logs only.
		slog.Error("webhook event processing failed", "error", err)
	}

	c.JSON(http.StatusOK, gin.H{"status": "received"})
}

// QueryMessages returns one page of ledger rows.
// Filters: phone, kind, type; pagination: page (1-indexed), limit.
func (h *Handler) QueryMessages(c *gin.Context) {
	filter := entities.MessageFilter{
		Phone: c.Query("phone"),
		Kind:  c.Query("kind"),
		Type:  c.Query("type"),
		Page:  parseIntDefault(c.Query("page"), 1),
		Limit: parseIntDefault(c.Query("limit"), 50),
	}

	records, total, err := h.ledger.Query(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items": records,
		"total": total,
		"page":  filter.Page,
	})
}

func (h *Handler) ListContacts(c *gin.Context) {
	limit := parseIntDefault(c.Query("limit"), 50)
	offset := parseIntDefault(c.Query("offset"), 0)

	contacts, err := h.contacts.List(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": contacts})
}

func (h *Handler) GetContact(c *gin.Context) {
	phone := c.Param("phone")
	contact, err := h.contacts.Get(c.Request.Context(), phone)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "contact not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, contact)
}

// SetContactName records an operator-assigned display name. This is the only
// way a contact gets a name; it is never inferred from message content.
func (h *Handler) SetContactName(c *gin.Context) {
	phone := c.Param("phone")
	if !ValidPhone(phone) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid phone"})
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	name := TruncateString(SanitizeString(req.Name), MaxNameLength)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name required"})
		return
	}

	if err := h.contacts.SetName(c.Request.Context(), phone, name); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

func (h *Handler) Broadcast(c *gin.Context) {
	var req struct {
		Phones []string `json:"phones"`
		Body   string   `json:"body"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if len(req.Phones) == 0 || req.Body == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "phones and body required"})
		return
	}
	for _, p := range req.Phones {
		if !ValidPhone(p) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid phone: " + p})
			return
		}
	}

	result, err := h.broadcastService.Send(c.Request.Context(), req.Phones, TruncateString(req.Body, MaxBodyLength))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) GetAllConfigs(c *gin.Context) {
	if h.configRepo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "config store not available"})
		return
	}
	configs, err := h.configRepo.GetAllConfigs(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": configs})
}

func (h *Handler) SetConfig(c *gin.Context) {
	if h.configRepo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "config store not available"})
		return
	}

	var req struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if !ValidConfigKey(req.Key) || len(req.Value) > MaxConfigValLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid key or value"})
		return
	}

	if err := h.configRepo.SetConfig(c.Request.Context(), req.Key, SanitizeString(req.Value)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

func parseIntDefault(raw string, def int) int {
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
