package repos

import (
	"context"

	"ticketlogger/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TicketRepo struct{ db *gorm.DB }

func NewTicketRepo(db *gorm.DB) *TicketRepo { return &TicketRepo{db: db} }

// Transaction runs fn with a repo bound to a single gorm transaction.
func (r *TicketRepo) Transaction(ctx context.Context, fn func(tx *TicketRepo) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&TicketRepo{db: tx})
	})
}

func (r *TicketRepo) joined(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&domain.Ticket{}).
		Select("tickets.*, locations.address AS location_address").
		Joins("JOIN locations ON locations.id = tickets.location_id").
		Preload("Products", func(db *gorm.DB) *gorm.DB { return db.Order("products.name") })
}

func (r *TicketRepo) List(ctx context.Context) ([]domain.Ticket, error) {
	var out []domain.Ticket
	err := r.joined(ctx).Order("tickets.date DESC, tickets.id DESC").Find(&out).Error
	return out, err
}

func (r *TicketRepo) Get(ctx context.Context, id int64) (*domain.Ticket, error) {
	var t domain.Ticket
	if err := r.joined(ctx).Where("tickets.id = ?", id).Take(&t).Error; err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

// Create inserts the ticket and links productIDs.
func (r *TicketRepo) Create(ctx context.Context, t *domain.Ticket, productIDs []int64) error {
	return r.Transaction(ctx, func(tx *TicketRepo) error {
		if err := tx.db.WithContext(ctx).Omit(clause.Associations).Create(t).Error; err != nil {
			return err
		}
		return tx.replaceProducts(ctx, t, productIDs)
	})
}

// Update rewrites the ticket columns and replaces its product set.
func (r *TicketRepo) Update(ctx context.Context, t *domain.Ticket, productIDs []int64) error {
	return r.Transaction(ctx, func(tx *TicketRepo) error {
		res := tx.db.WithContext(ctx).Model(&domain.Ticket{}).Where("id = ?", t.ID).Updates(map[string]any{
			"date":        t.Date,
			"discount":    t.Discount,
			"location_id": t.LocationID,
		})
		if err := rows(res); err != nil {
			return err
		}
		return tx.replaceProducts(ctx, t, productIDs)
	})
}

func (r *TicketRepo) replaceProducts(ctx context.Context, t *domain.Ticket, productIDs []int64) error {
	products := []domain.Product{}
	if len(productIDs) > 0 {
		if err := r.db.WithContext(ctx).Where("id IN ?", productIDs).Find(&products).Error; err != nil {
			return err
		}
	}
	return r.db.WithContext(ctx).Model(t).Omit("Products.*").Association("Products").Replace(products)
}

func (r *TicketRepo) Delete(ctx context.Context, id int64) error {
	return rows(r.db.WithContext(ctx).Delete(&domain.Ticket{}, id))
}

// AttachProduct links an existing product; linking twice is a no-op.
func (r *TicketRepo) AttachProduct(ctx context.Context, ticketID, productID int64) error {
	t, p, err := r.pair(ctx, ticketID, productID)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(t).Omit("Products.*").Association("Products").Append(p)
}

// AddNewProduct creates p and links it to the ticket.
func (r *TicketRepo) AddNewProduct(ctx context.Context, ticketID int64, p *domain.Product) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(&domain.Ticket{ID: ticketID}).Omit("Products.*").Association("Products").Append(p)
}

// DetachProduct removes the link only; the product row stays.
func (r *TicketRepo) DetachProduct(ctx context.Context, ticketID, productID int64) error {
	t, p, err := r.pair(ctx, ticketID, productID)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(t).Association("Products").Delete(p)
}

func (r *TicketRepo) pair(ctx context.Context, ticketID, productID int64) (*domain.Ticket, *domain.Product, error) {
	var t domain.Ticket
	if err := r.db.WithContext(ctx).Select("id").Take(&t, ticketID).Error; err != nil {
		return nil, nil, notFound(err)
	}
	var p domain.Product
	if err := r.db.WithContext(ctx).Take(&p, productID).Error; err != nil {
		return nil, nil, notFound(err)
	}
	return &t, &p, nil
}
