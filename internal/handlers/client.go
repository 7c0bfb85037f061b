package handlers

import (
	"errors"

	clientsvc "vwallet/internal/services/client"
	"vwallet/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type ClientHandler struct {
	clients clientsvc.Service
}

func NewClientHandler(svc clientsvc.Service) *ClientHandler {
	return &ClientHandler{clients: svc}
}

func (h *ClientHandler) Register(c *fiber.Ctx) error {
	var req struct {
		Document string `json:"document"`
		Name     string `json:"name"`
		Email    string `json:"email"`
		Phone    string `json:"phone"`
	}
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "BAD_REQUEST", "invalid request format")
	}
	if req.Document == "" || req.Name == "" || req.Email == "" || req.Phone == "" {
		return response.BadRequest(c, "BAD_REQUEST", "document, name, email and phone are required")
	}

	created, err := h.clients.Register(c.Context(), clientsvc.RegisterInput{
		Document: req.Document,
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
	})
	if err != nil {
		if errors.Is(err, clientsvc.ErrAlreadyExists) {
			return response.Conflict(c, "CLIENT_ALREADY_EXISTS", err.Error())
		}
		return response.ServerError(c, "STORAGE_UNAVAILABLE", "failed to register client")
	}
	return response.Created(c, created)
}

func (h *ClientHandler) List(c *fiber.Ctx) error {
	clients, err := h.clients.List(c.Context())
	if err != nil {
		return response.ServerError(c, "STORAGE_UNAVAILABLE", "failed to list clients")
	}
	return response.Success(c, clients)
}
