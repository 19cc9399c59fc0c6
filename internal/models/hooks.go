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

func (a *Appointment) BeforeCreate(*gorm.DB) error { ensureID(&a.ID); return nil }
func (u *User) BeforeCreate(*gorm.DB) error        { ensureID(&u.ID); return nil }
func (c *Customer) BeforeCreate(*gorm.DB) error    { ensureID(&c.ID); return nil }
func (p *Property) BeforeCreate(*gorm.DB) error    { ensureID(&p.ID); return nil }
func (o *Office) BeforeCreate(*gorm.DB) error      { ensureID(&o.ID); return nil }
