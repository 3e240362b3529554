// Package testutil provides the shared test harness: a base suite with
// ambient dependencies wired, deterministic series builders, and the
// golden-fixture loader used to assert against reference bills.
package testutil

import (
	"context"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"github.com/gridbill/gridbill/internal/config"
	"github.com/gridbill/gridbill/internal/logger"
)

// BaseServiceTestSuite wires the ambient dependencies services need so
// individual suites only set up domain data.
type BaseServiceTestSuite struct {
	suite.Suite
	logger *logger.Logger
	config *config.Configuration
}

func (s *BaseServiceTestSuite) SetupTest() {
	s.config = config.GetDefaultConfig()
	s.logger = &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
}

func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

func (s *BaseServiceTestSuite) GetContext() context.Context {
	return context.Background()
}
