package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Primary keys are assigned client side so rows can be linked before the
// insert round-trips and so sqlite-backed tests need no uuid default.

func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (s *Store) BeforeCreate(*gorm.DB) error            { assignID(&s.ID); return nil }
func (b *Brand) BeforeCreate(*gorm.DB) error            { assignID(&b.ID); return nil }
func (u *Unit) BeforeCreate(*gorm.DB) error             { assignID(&u.ID); return nil }
func (t *Tag) BeforeCreate(*gorm.DB) error              { assignID(&t.ID); return nil }
func (b *BudgetSource) BeforeCreate(*gorm.DB) error     { assignID(&b.ID); return nil }
func (b *BudgetEntry) BeforeCreate(*gorm.DB) error      { assignID(&b.ID); return nil }
func (t *Trip) BeforeCreate(*gorm.DB) error             { assignID(&t.ID); return nil }
func (s *Stop) BeforeCreate(*gorm.DB) error             { assignID(&s.ID); return nil }
func (p *Purchase) BeforeCreate(*gorm.DB) error         { assignID(&p.ID); return nil }
func (f *FormatCorrection) BeforeCreate(*gorm.DB) error { assignID(&f.ID); return nil }
func (c *CalendarTask) BeforeCreate(*gorm.DB) error     { assignID(&c.ID); return nil }
