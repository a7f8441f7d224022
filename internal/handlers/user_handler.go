package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/dealer-ledger/internal/middleware"
	"github.com/sjperalta/dealer-ledger/internal/models"
	"github.com/sjperalta/dealer-ledger/internal/repository"
	"github.com/sjperalta/dealer-ledger/internal/services"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// @Summary List Users
// @Description Get a paginated list of operator accounts
// @Tags Users
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param search_term query string false "Search by username or name"
// @Param role query string false "Filter by role"
// @Param status query string false "active (default), inactive or all"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /users [get]
func (h *UserHandler) Index(c *gin.Context) {
	query := repository.NewListQuery()
	query.Page, query.PerPage = pagination(c, 20)
	query.Search = c.Query("search_term")
	query.Filters["role"] = c.Query("role")

	status := c.Query("status")
	if status == "" {
		status = models.StatusActive
	} else if status == "all" {
		status = ""
	}
	query.Filters["status"] = status

	users, total, err := h.userService.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]models.UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, users[i].ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"users":      responses,
		"pagination": paginationBody(query.Page, query.PerPage, total),
	})
}

func (h *UserHandler) Show(c *gin.Context) {
	id, ok := paramID(c, "user_id")
	if !ok {
		return
	}
	user, err := h.userService.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user.ToResponse()})
}

type CreateUserRequest struct {
	Username       string `json:"username"`
	Password       string `json:"password"`
	FullName       string `json:"full_name"`
	FullNamePascal string `json:"FullName"` // Support PascalCase from some frontends/tools
	Role           string `json:"role"`
}

// toInput resolves the name spelled either way
func (r CreateUserRequest) toInput() services.CreateUserInput {
	name := r.FullName
	if name == "" {
		name = r.FullNamePascal
	}
	return services.CreateUserInput{
		Username: r.Username,
		Password: r.Password,
		FullName: name,
		Role:     r.Role,
	}
}

// @Summary Create User
// @Description Create an operator account
// @Tags Users
// @Accept json
// @Produce json
// @Param request body CreateUserRequest true "User Data"
// @Success 201 {object} models.UserResponse
// @Failure 409 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Security BearerAuth
// @Router /users [post]
func (h *UserHandler) Create(c *gin.Context) {
	var req CreateUserRequest
	if err := BindNestedOrFlat(c, "user", &req); err != nil {
		badRequest(c, "body", err)
		return
	}

	user, err := h.userService.Create(c.Request.Context(), req.toInput(), middleware.GetActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": user.ToResponse()})
}

type UserStatusRequest struct {
	Active *bool `json:"active"`
}

// @Summary Enable or disable a user
// @Tags Users
// @Accept json
// @Produce json
// @Param user_id path int true "User ID"
// @Param request body UserStatusRequest true "Status"
// @Success 200 {object} models.UserResponse
// @Security BearerAuth
// @Router /users/{user_id}/status [patch]
func (h *UserHandler) SetStatus(c *gin.Context) {
	id, ok := paramID(c, "user_id")
	if !ok {
		return
	}

	var req UserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "body", err)
		return
	}
	if req.Active == nil {
		respondError(c, &services.ValidationError{Field: "active", Message: "is required"})
		return
	}
	if !*req.Active && id == middleware.GetUserID(c) {
		respondError(c, &services.ValidationError{Field: "active", Message: "you cannot disable your own account"})
		return
	}

	if err := h.userService.SetActive(c.Request.Context(), id, *req.Active, middleware.GetActor(c)); err != nil {
		respondError(c, err)
		return
	}

	user, err := h.userService.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user.ToResponse()})
}
