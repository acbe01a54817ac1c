package models

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Project struct {
	DefaultModel
	Name          string      `json:"name"`
	Description   string      `json:"description"`
	Icon          string      `json:"icon"`
	Color         string      `json:"color"`
	IsShared      bool        `json:"isShared"`
	Collaborators []uuid.UUID `json:"collaborators" gorm:"serializer:json"`
}

var ErrProjectNameRequired = errors.New("project name must not be empty")

func (p *Project) BeforeSave(_ *gorm.DB) error {
	p.Name = strings.TrimSpace(p.Name)
	p.Description = strings.TrimSpace(p.Description)
	return nil
}

// Validate checks the project before any remote call is attempted.
func (p Project) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrProjectNameRequired
	}
	return nil
}
