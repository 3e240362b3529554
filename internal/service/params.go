package service

import (
	"github.com/gridbill/gridbill/internal/config"
	"github.com/gridbill/gridbill/internal/logger"
)

// ServiceParams carries the ambient dependencies shared by all services.
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
}

// withDefaults fills missing dependencies so services can be embedded as
// a library without explicit wiring.
func (p ServiceParams) withDefaults() ServiceParams {
	if p.Logger == nil {
		p.Logger = logger.GetLogger()
	}
	if p.Config == nil {
		p.Config = config.GetDefaultConfig()
	}
	return p
}
