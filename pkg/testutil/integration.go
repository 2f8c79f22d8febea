package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// suiteTimeout bounds every call made through an integration suite's context.
const suiteTimeout = 2 * time.Minute

// IntegrationTestSuite is embedded by suites that talk to real services. It
// owns a context and a scratch directory shared by the suite's tests.
type IntegrationTestSuite struct {
	suite.Suite
	ctx     context.Context
	cancel  context.CancelFunc
	dir     string
	started time.Time
}

// SetupSuite runs before the suite's first test.
func (s *IntegrationTestSuite) SetupSuite() {
	s.ctx, s.cancel = context.WithTimeout(context.Background(), suiteTimeout)
	s.started = time.Now()
	s.dir = s.T().TempDir()
}

// TearDownSuite runs after the suite's last test.
func (s *IntegrationTestSuite) TearDownSuite() {
	if s.cancel != nil {
		s.cancel()
	}
	s.T().Logf("integration suite took %v", time.Since(s.started))
}

// Context is cancelled when the suite ends.
func (s *IntegrationTestSuite) Context() context.Context {
	return s.ctx
}

// WriteFile places content under the suite's scratch directory and returns
// its path.
func (s *IntegrationTestSuite) WriteFile(name string, content []byte) string {
	path := filepath.Join(s.dir, name)
	require.NoError(s.T(), os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(s.T(), os.WriteFile(path, content, 0o600))
	return path
}

// IntegrationTest skips in short mode
func IntegrationTest(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
}

// RequireEnv returns the value of name or skips the test when it is unset.
func RequireEnv(t *testing.T, name string) string {
	t.Helper()
	v := os.Getenv(name)
	if v == "" {
		t.Skipf("%s not set", name)
	}
	return v
}
