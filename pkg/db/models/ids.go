package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// All lists every persisted model in dependency order for AutoMigrate.
func All() []any {
	return []any{
		&User{},
		&Town{},
		&Store{},
		&Product{},
		&CartItem{},
		&Order{},
		&OrderItem{},
		&Delivery{},
		&DeliveryTrackingUpdate{},
		&Payment{},
	}
}

func (u *User) BeforeCreate(*gorm.DB) error                   { ensureID(&u.ID); return nil }
func (t *Town) BeforeCreate(*gorm.DB) error                   { ensureID(&t.ID); return nil }
func (s *Store) BeforeCreate(*gorm.DB) error                  { ensureID(&s.ID); return nil }
func (p *Product) BeforeCreate(*gorm.DB) error                { ensureID(&p.ID); return nil }
func (c *CartItem) BeforeCreate(*gorm.DB) error               { ensureID(&c.ID); return nil }
func (o *Order) BeforeCreate(*gorm.DB) error                  { ensureID(&o.ID); return nil }
func (i *OrderItem) BeforeCreate(*gorm.DB) error              { ensureID(&i.ID); return nil }
func (d *Delivery) BeforeCreate(*gorm.DB) error               { ensureID(&d.ID); return nil }
func (u *DeliveryTrackingUpdate) BeforeCreate(*gorm.DB) error { ensureID(&u.ID); return nil }
func (p *Payment) BeforeCreate(*gorm.DB) error                { ensureID(&p.ID); return nil }
