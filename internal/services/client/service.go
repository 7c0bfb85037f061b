// Package client handles client registration and listing. Balance is
// owned by the ledger service; registration always starts at zero.
package client

import (
	"context"
	"errors"
	"fmt"
	"log"

	"vwallet/internal/models"
	"vwallet/internal/repositories"
)

// RegisterInput carries already-validated registration fields.
type RegisterInput struct {
	Document string
	Name     string
	Email    string
	Phone    string
}

// Service defines client registration operations.
type Service interface {
	Register(ctx context.Context, in RegisterInput) (*models.Client, error)
	List(ctx context.Context) ([]models.Client, error)
}

type service struct {
	repo repositories.ClientRepository
}

// NewService creates a new client service.
func NewService(repo repositories.ClientRepository) Service {
	if repo == nil {
		panic("client repository is required")
	}
	return &service{repo: repo}
}

func (s *service) Register(ctx context.Context, in RegisterInput) (*models.Client, error) {
	c := &models.Client{
		Document: in.Document,
		Name:     in.Name,
		Email:    in.Email,
		Phone:    in.Phone,
	}

	// The unique constraints on document and email are the authority here;
	// a pre-check would still race with concurrent registrations.
	if err := s.repo.Create(ctx, c); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			log.Printf("client: duplicate registration for document %s", in.Document)
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("failed to register client: %w", err)
	}

	log.Printf("client: registered - id: %d, document: %s", c.ID, c.Document)
	return c, nil
}

func (s *service) List(ctx context.Context) ([]models.Client, error) {
	clients, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	return clients, nil
}
