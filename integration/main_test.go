//go:build integration

package integration

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/jwebster45206/artel-village/integration/runner"
)

var caseFlag = flag.String("case", "", "Name of test case to run (from integration/cases/)")
var errFlag = flag.String("err", "continue", "Error handling mode: 'continue' (run all steps) or 'exit' (stop on first failure)")

func TestMain(m *testing.M) {
	fmt.Printf("Running Artel Village Integration Tests\n")
	fmt.Printf("   API Base URL: %s\n", apiBaseURL())

	os.Exit(m.Run())
}

func TestIntegrationSuites(t *testing.T) {
	flag.Parse()

	files, err := caseFiles(*caseFlag)
	if err != nil {
		t.Fatalf("Failed to discover test files: %v", err)
	}
	if len(files) == 0 {
		t.Fatal("No test files found in cases directory")
	}
	if *errFlag != "exit" && *errFlag != "continue" {
		t.Fatalf("Invalid -err flag value: %s (must be 'exit' or 'continue')", *errFlag)
	}

	testRunner := runner.NewRunner(apiBaseURL())
	testRunner.Timeout = time.Duration(getIntEnv("TEST_TIMEOUT_SECONDS", 30)) * time.Second
	testRunner.ErrorHandlingMode = runner.ErrorHandlingMode(*errFlag)
	testRunner.Logger = func(format string, args ...interface{}) {
		fmt.Printf(format+"\n", args...)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	var failed []string
	for i, file := range files {
		suite, err := runner.LoadTestSuite(file)
		if err != nil {
			t.Errorf("[%d/%d] Failed to load test suite %s: %v", i+1, len(files), file, err)
			failed = append(failed, file)
			continue
		}

		t.Logf("[%d/%d] Starting test suite: %s (%d steps)", i+1, len(files), suite.Name, len(suite.Steps))
		result, _ := testRunner.RunSuite(ctx, suite)
		t.Logf("Player ID: %s", result.PlayerID)

		for _, step := range result.Results {
			if step.Success {
				t.Logf("   ✓ %s (%v)", step.StepName, step.Duration)
			} else {
				t.Errorf("   ✗ %s: %v", step.StepName, step.Error)
				for _, line := range step.Transcript {
					t.Logf("      | %s", line)
				}
			}
		}

		if result.Error != nil {
			failed = append(failed, fmt.Sprintf("%s: %v", suite.Name, result.Error))
			t.Errorf("[%d/%d] FAILED: Test suite '%s' failed: %v", i+1, len(files), suite.Name, result.Error)
			if *errFlag == "exit" {
				break
			}
			continue
		}
		t.Logf("[%d/%d] PASSED: Test suite '%s' completed in %v", i+1, len(files), suite.Name, result.Duration)
	}

	t.Logf("\nIntegration Test Summary:")
	t.Logf("   Passed: %d", len(files)-len(failed))
	t.Logf("   Failed: %d", len(failed))
	if len(failed) > 0 {
		t.Fatalf("Integration tests failed:\n   - %s", strings.Join(failed, "\n   - "))
	}
}

// caseFiles returns the named cases (comma-separated) or every case.
func caseFiles(names string) ([]string, error) {
	if names == "" {
		return filepath.Glob(filepath.Join("cases", "*.json"))
	}

	var files []string
	for _, name := range strings.Split(names, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if !strings.HasSuffix(name, ".json") {
			name += ".json"
		}
		files = append(files, filepath.Join("cases", name))
	}
	return files, nil
}

func apiBaseURL() string {
	if u := os.Getenv("API_BASE_URL"); u != "" {
		return u
	}
	return "http://localhost:8080"
}

func getIntEnv(name string, defaultValue int) int {
	val, err := strconv.Atoi(os.Getenv(name))
	if err != nil {
		return defaultValue
	}
	return val
}
