package http

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"exercise-tracker/internal/domain"
	"exercise-tracker/internal/service"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	users     service.UserService
	exercises service.ExerciseService
	store     Pinger
	status    StatusPolicy
	logger    logrus.FieldLogger
}

func NewHandler(users service.UserService, exercises service.ExerciseService, store Pinger, status StatusPolicy, logger logrus.FieldLogger) *Handler {
	if status == nil {
		status = LegacyStatus
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{
		users:     users,
		exercises: exercises,
		store:     store,
		status:    status,
		logger:    logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())

	api := router.Group("/api")
	{
		api.GET("/users", h.listUsers)
		api.POST("/users", h.createUser)
		api.DELETE("/users/:_id", h.deleteUser)
		api.POST("/users/:_id/exercises", h.addExercise)
		api.GET("/users/:_id/logs", h.getLogs)
		api.GET("/health", h.health)
	}
}

// RegisterStatic serves the landing page and its assets.
func RegisterStatic(router *gin.Engine, viewsDir, publicDir string) {
	if publicDir != "" {
		router.Static("/public", publicDir)
	}
	if viewsDir != "" {
		index := filepath.Join(viewsDir, "index.html")
		router.GET("/", func(c *gin.Context) {
			c.File(index)
		})
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// formValue accepts both JSON strings and numbers, since forms send everything as text.
type formValue string

func (v *formValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = formValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*v = formValue(n.String())
	return nil
}

type createUserRequest struct {
	Username formValue `form:"username" json:"username"`
}

type addExerciseRequest struct {
	Description formValue `form:"description" json:"description"`
	Duration    formValue `form:"duration" json:"duration"`
	Date        formValue `form:"date" json:"date"`
}

type UserResponse struct {
	Username string `json:"username"`
	ID       string `json:"_id"`
}

type ExerciseResponse struct {
	ID          string `json:"_id"`
	Username    string `json:"username"`
	Description string `json:"description"`
	Duration    int    `json:"duration"`
	Date        string `json:"date"`
}

type LogEntryResponse struct {
	Description string `json:"description"`
	Duration    int    `json:"duration"`
	Date        string `json:"date"`
}

type LogResponse struct {
	ID       string             `json:"_id"`
	Username string             `json:"username"`
	Count    int                `json:"count"`
	Log      []LogEntryResponse `json:"log"`
}

type DeleteUserResponse struct {
	ID               string `json:"_id"`
	Username         string `json:"username"`
	DeletedExercises int64  `json:"deletedExercises"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.users.ListUsers(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := make([]UserResponse, len(users))
	for i := range users {
		resp[i] = userToResponse(users[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) createUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBind(&req); err != nil {
		h.failBinding(c, err)
		return
	}

	user, err := h.users.CreateUser(c.Request.Context(), string(req.Username))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, userToResponse(*user))
}

func (h *Handler) deleteUser(c *gin.Context) {
	user, removed, err := h.users.DeleteUser(c.Request.Context(), c.Param("_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, DeleteUserResponse{
		ID:               user.ID,
		Username:         user.Username,
		DeletedExercises: removed,
	})
}

func (h *Handler) addExercise(c *gin.Context) {
	var req addExerciseRequest
	if err := c.ShouldBind(&req); err != nil {
		h.failBinding(c, err)
		return
	}

	user, exercise, err := h.exercises.AddExercise(c.Request.Context(), service.AddExerciseInput{
		UserID:      c.Param("_id"),
		Description: string(req.Description),
		Duration:    string(req.Duration),
		Date:        string(req.Date),
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, ExerciseResponse{
		ID:          user.ID,
		Username:    user.Username,
		Description: exercise.Description,
		Duration:    exercise.Duration,
		Date:        formatDate(exercise.Date),
	})
}

func (h *Handler) getLogs(c *gin.Context) {
	log, err := h.exercises.GetLog(c.Request.Context(), service.LogInput{
		UserID: c.Param("_id"),
		From:   c.Query("from"),
		To:     c.Query("to"),
		Limit:  c.Query("limit"),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, logToResponse(*log))
}

func (h *Handler) health(c *gin.Context) {
	if h.store != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.store.Ping(ctx); err != nil {
			h.logger.WithError(err).Warn("store ping failed")
			c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: service.MsgServerError})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"ok": "ok"})
}

// fail writes err through the status policy. Internal causes are logged, never returned.
func (h *Handler) fail(c *gin.Context, err error) {
	svcErr := service.AsError(err)
	if svcErr.Kind == service.KindInternal {
		h.logger.WithError(svcErr.Err).WithFields(logrus.Fields{
			"op":     svcErr.Op,
			"path":   c.Request.URL.Path,
			"userId": c.Param("_id"),
		}).Error("request failed")
		_ = c.Error(svcErr)
	}
	c.JSON(h.status(svcErr.Kind), ErrorResponse{Error: svcErr.Message})
}

func (h *Handler) failBinding(c *gin.Context, err error) {
	h.logger.WithError(err).Debug("bind request body")
	c.JSON(h.status(service.KindValidation), ErrorResponse{Error: "invalid request body"})
}

func formatDate(t time.Time) string {
	return t.UTC().Format(service.DisplayDateLayout)
}

func userToResponse(user domain.User) UserResponse {
	return UserResponse{
		Username: user.Username,
		ID:       user.ID,
	}
}

func logToResponse(log service.Log) LogResponse {
	entries := make([]LogEntryResponse, len(log.Exercises))
	for i, exercise := range log.Exercises {
		entries[i] = LogEntryResponse{
			Description: exercise.Description,
			Duration:    exercise.Duration,
			Date:        formatDate(exercise.Date),
		}
	}
	return LogResponse{
		ID:       log.User.ID,
		Username: log.User.Username,
		Count:    len(entries),
		Log:      entries,
	}
}
