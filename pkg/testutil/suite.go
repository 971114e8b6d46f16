package testutil

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/ajitpratap0/colbridge/pkg/metrics"
)

// BoundarySuite provides base functionality for end-to-end tests that drive
// the host-facing surface. Every test gets its own context, temp directory
// and metrics collector.
type BoundarySuite struct {
	suite.Suite
	ctx       context.Context
	cancel    context.CancelFunc
	tempDir   string
	collector *metrics.Collector
	prev      *metrics.Collector
}

// SetupTest runs before each test in the suite
func (s *BoundarySuite) SetupTest() {
	s.ctx, s.cancel = context.WithTimeout(context.Background(), time.Minute)
	s.tempDir = s.T().TempDir()
	s.prev = metrics.Current()
	s.collector = metrics.NewCollector("suite")
	metrics.Install(s.collector)
}

// TearDownTest runs after each test in the suite
func (s *BoundarySuite) TearDownTest() {
	s.cancel()
	metrics.Install(s.prev)
}

// Context returns the test context
func (s *BoundarySuite) Context() context.Context {
	return s.ctx
}

// Metrics returns the collector installed for the current test
func (s *BoundarySuite) Metrics() *metrics.Collector {
	return s.collector
}

// CreateTempFile creates a temporary file with content
func (s *BoundarySuite) CreateTempFile(name string, content []byte) string {
	path := filepath.Join(s.tempDir, name)
	require.NoError(s.T(), os.WriteFile(path, content, 0o600))
	return path
}
