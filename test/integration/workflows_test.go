//go:build integration

package integration

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listOutput struct {
	List  []map[string]any `json:"list"`
	Count int              `json:"count"`
	Pages int              `json:"pages"`
	Page  int              `json:"page"`
}

// TestProducerWorkflow creates, reads, updates and deletes a producer
func TestProducerWorkflow(t *testing.T) {
	config := LoadTestConfig()
	config.SkipIfMissingConfig(t)

	runner := NewCommandRunner(config, t)
	require.NoError(t, runner.Login())

	name := GenerateTestName("dcapi-producer")

	// 1. Create
	stdout, stderr, err := runner.Run("create", "producers", "--output", "json",
		"--data", `{"name":"`+name+`","web":"https://producer.example"}`)
	require.NoError(t, err, "Failed to create producer: %s", stderr)

	id := strings.Trim(strings.TrimSpace(stdout), `"`)
	require.NotEmpty(t, id)

	defer runner.CleanupRecord("producers", id)

	// 2. Read it back
	stdout, stderr, err = runner.Run("get", "producers", id, "--output", "json")
	require.NoError(t, err, "Failed to get producer: %s", stderr)

	var producer map[string]any
	DecodeJSONOutput(t, stdout, &producer)
	assert.Equal(t, name, producer["name"])

	// 3. Find it with a filter
	stdout, stderr, err = runner.Run("get", "producers", "--output", "json",
		"--filter", "name="+name, "--limit", "5")
	require.NoError(t, err, "Failed to filter producers: %s", stderr)

	var found listOutput
	DecodeJSONOutput(t, stdout, &found)
	require.Len(t, found.List, 1)
	assert.Equal(t, 1, found.Count)

	// 4. Update
	stdout, stderr, err = runner.Run("update", "producers", id, "--data", `{"web":"https://updated.example"}`)
	require.NoError(t, err, "Failed to update producer: %s", stderr)
	assert.Contains(t, stdout, "Updated producers "+id)

	stdout, _, err = runner.Run("get", "producers", id, "--output", "yaml")
	require.NoError(t, err)
	AssertYAMLOutput(t, stdout)
	assert.Contains(t, stdout, "https://updated.example")

	// 5. Delete
	stdout, stderr, err = runner.Run("delete", "producers", id)
	require.NoError(t, err, "Failed to delete producer: %s", stderr)
	assert.Contains(t, stdout, "Deleted producers "+id)

	_, stderr, err = runner.Run("get", "producers", id)
	require.Error(t, err)
	assert.Contains(t, stderr, "(code: 404)")
}

// TestCriteriaWorkflow checks paging and ordering against the live shop
func TestCriteriaWorkflow(t *testing.T) {
	config := LoadTestConfig()
	config.SkipIfMissingConfig(t)

	runner := NewCommandRunner(config, t)
	require.NoError(t, runner.Login())

	stdout, stderr, err := runner.Run("get", "products", "--output", "json", "--limit", "2", "--page", "1", "--order", "-product_id")
	require.NoError(t, err, "Failed to list products: %s", stderr)

	var page listOutput
	DecodeJSONOutput(t, stdout, &page)
	assert.LessOrEqual(t, len(page.List), 2)
	assert.Equal(t, 1, page.Page)

	_, stderr, err = runner.Run("get", "products", "--limit", "51")
	require.Error(t, err)
	assert.Contains(t, stderr, "beyond 1-50 range")

	_, stderr, err = runner.Run("get", "products", "--order", "!!!")
	require.Error(t, err)
	assert.Contains(t, stderr, "cannot understand ordering expression")
}

// TestSingleResourceWorkflow reads a resource that has no collection
func TestSingleResourceWorkflow(t *testing.T) {
	config := LoadTestConfig()
	config.SkipIfMissingConfig(t)

	runner := NewCommandRunner(config, t)
	require.NoError(t, runner.Login())

	stdout, stderr, err := runner.Run("get", "application-version", "--output", "json")
	require.NoError(t, err, "Failed to get application version: %s", stderr)

	var version map[string]any
	DecodeJSONOutput(t, stdout, &version)
	assert.NotEmpty(t, version)
}
