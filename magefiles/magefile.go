//go:build mage

// Package main provides build targets for the dcapi project using Mage.
//
// Usage:
//
//	mage build            Compile the dcapi binary to bin/
//	mage test             Run unit tests
//	mage testUnit         Run unit tests, excluding test/integration
//	mage testIntegration  Build, then run integration tests against a live shop
//	mage lint             Run golangci-lint
//	mage clean            Remove build artifacts
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binaryName = "dcapi"
	binaryDir  = "bin"
	cmdDir     = "./cmd/dcapi"
)

// Build compiles the dcapi binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o750); err != nil {
		return err
	}

	version, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil {
		version = "dev"
	}

	ldflags := fmt.Sprintf("-X main.version=%s", version)

	return sh.RunV("go", "build", "-ldflags", ldflags, "-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// Test runs the unit tests.
func Test() error {
	mg.Deps(TestUnit)

	return nil
}

// TestUnit runs only unit tests, excluding the test/ directory.
func TestUnit() error {
	pkgs, err := sh.Output("go", "list", "./...")
	if err != nil {
		return err
	}

	var unitPkgs []string

	for _, pkg := range strings.Split(pkgs, "\n") {
		if pkg != "" && !strings.Contains(pkg, "/test/") {
			unitPkgs = append(unitPkgs, pkg)
		}
	}

	if len(unitPkgs) == 0 {
		fmt.Println("No unit test packages found.")

		return nil
	}

	args := append([]string{"test", "-race"}, unitPkgs...)

	return sh.RunV("go", args...)
}

// TestIntegration builds first, then runs the integration tests. They skip
// unless DCAPI_TEST_ENTRYPOINT and DCAPI_TEST_TOKEN are set.
func TestIntegration() error {
	mg.Deps(Build)

	binary, err := filepath.Abs(filepath.Join(binaryDir, binaryName))
	if err != nil {
		return err
	}

	env := map[string]string{"DCAPI_BINARY_PATH": binary}

	return sh.RunWithV(env, "go", "test", "-tags", "integration", "./test/integration/...")
}

// Lint runs golangci-lint.
func Lint() error {
	return sh.RunV("golangci-lint", "run", "./...")
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}

	return sh.RunV("go", "clean")
}
