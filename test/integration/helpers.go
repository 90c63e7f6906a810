//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestConfig holds configuration for integration tests
type TestConfig struct {
	Entrypoint string
	Token      string
	DcapiPath  string
	Verbose    bool
}

// LoadTestConfig loads configuration from environment variables
func LoadTestConfig() *TestConfig {
	return &TestConfig{
		Entrypoint: os.Getenv("DCAPI_TEST_ENTRYPOINT"),
		Token:      os.Getenv("DCAPI_TEST_TOKEN"),
		DcapiPath:  getDcapiPath(),
		Verbose:    os.Getenv("DCAPI_TEST_VERBOSE") == "true",
	}
}

// getDcapiPath determines the path to the dcapi binary
func getDcapiPath() string {
	if path := os.Getenv("DCAPI_BINARY_PATH"); path != "" {
		return path
	}

	candidates := []string{
		"../../bin/dcapi",
		"../../dcapi",
		"./dcapi",
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return "dcapi" // Fallback to PATH
}

// SkipIfMissingConfig skips test if required config is missing
func (config *TestConfig) SkipIfMissingConfig(t *testing.T) {
	t.Helper()

	if config.Entrypoint == "" || config.Token == "" {
		t.Skip("DCAPI_TEST_ENTRYPOINT or DCAPI_TEST_TOKEN not set, skipping integration test")
	}

	if _, err := exec.LookPath(config.DcapiPath); err != nil {
		t.Skipf("dcapi binary not found at %s, skipping integration test", config.DcapiPath)
	}
}

// CommandRunner runs dcapi against the test shop with an isolated config file
type CommandRunner struct {
	config     *TestConfig
	configFile string
	t          *testing.T
}

// NewCommandRunner creates a new command runner
func NewCommandRunner(config *TestConfig, t *testing.T) *CommandRunner {
	t.Helper()

	return &CommandRunner{
		config:     config,
		configFile: filepath.Join(t.TempDir(), "config.yml"),
		t:          t,
	}
}

// Run executes a dcapi command and returns output
func (runner *CommandRunner) Run(args ...string) (stdout, stderr string, err error) {
	args = append([]string{"--config", runner.configFile}, args...)

	cmd := exec.Command(runner.config.DcapiPath, args...)

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	if runner.config.Verbose {
		runner.t.Logf("Running: %s %s", runner.config.DcapiPath, strings.Join(args, " "))
	}

	err = cmd.Run()
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if runner.config.Verbose && err != nil {
		runner.t.Logf("Command failed: %v\nStdout: %s\nStderr: %s", err, stdout, stderr)
	}

	return stdout, stderr, err
}

// Login stores the test shop as the current profile
func (runner *CommandRunner) Login() error {
	_, stderr, err := runner.Run("login",
		"--entrypoint", runner.config.Entrypoint,
		"--token", runner.config.Token,
		"--name", "integration")
	if err != nil {
		return fmt.Errorf("failed to log in: %s", stderr)
	}

	return nil
}

// GenerateTestName creates a unique test resource name
func GenerateTestName(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

// CleanupRecord attempts to delete a test record
func (runner *CommandRunner) CleanupRecord(resource, id string) {
	if id == "" {
		return
	}

	stdout, stderr, err := runner.Run("delete", resource, id)
	if err != nil && runner.config.Verbose {
		runner.t.Logf("Cleanup warning for %s %s: %s\nStderr: %s", resource, id, stdout, stderr)
	}
}

// DecodeJSONOutput verifies command output is JSON and decodes it
func DecodeJSONOutput(t *testing.T, output string, v any) {
	t.Helper()

	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(output)), v), "output is not JSON: %s", output)
}

// AssertYAMLOutput verifies command output looks like YAML
func AssertYAMLOutput(t *testing.T, output string) {
	t.Helper()

	output = strings.TrimSpace(output)
	if strings.Contains(output, "---") || strings.Contains(output, ":") {
		return
	}

	t.Errorf("Output does not appear to be YAML: %s", output)
}
