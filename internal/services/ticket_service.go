package services

import (
	"context"
	"strings"

	"ticketlogger/internal/domain"
	"ticketlogger/internal/repos"
)

type TicketService struct {
	Tickets *repos.TicketRepo
}

func NewTicketService(tickets *repos.TicketRepo) *TicketService {
	return &TicketService{Tickets: tickets}
}

func (s *TicketService) List(ctx context.Context) ([]domain.Ticket, error) {
	return s.Tickets.List(ctx)
}

func (s *TicketService) Get(ctx context.Context, id int64) (*domain.Ticket, error) {
	return s.Tickets.Get(ctx, id)
}

func (s *TicketService) Create(ctx context.Context, t *domain.Ticket, productIDs []int64) error {
	return s.Tickets.Create(ctx, t, productIDs)
}

func (s *TicketService) Update(ctx context.Context, t *domain.Ticket, productIDs []int64) error {
	return s.Tickets.Update(ctx, t, productIDs)
}

func (s *TicketService) Delete(ctx context.Context, id int64) error {
	return s.Tickets.Delete(ctx, id)
}

func (s *TicketService) AttachProduct(ctx context.Context, ticketID, productID int64) error {
	return s.Tickets.AttachProduct(ctx, ticketID, productID)
}

func (s *TicketService) DetachProduct(ctx context.Context, ticketID, productID int64) error {
	return s.Tickets.DetachProduct(ctx, ticketID, productID)
}

// AddNewProduct creates p and attaches it, unless the ticket already holds a product
// with the same name (ignoring case). Both steps share one transaction.
func (s *TicketService) AddNewProduct(ctx context.Context, ticketID int64, p *domain.Product) error {
	p.Name = strings.TrimSpace(p.Name)
	return s.Tickets.Transaction(ctx, func(tx *repos.TicketRepo) error {
		t, err := tx.Get(ctx, ticketID)
		if err != nil {
			return err
		}
		if t.HasProductNamed(p.Name) {
			return ErrProductOnTicket
		}
		return tx.AddNewProduct(ctx, ticketID, p)
	})
}
