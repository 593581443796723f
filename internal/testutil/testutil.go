package testutil

import (
	"net/http"
	"os"
	"strconv"
	"testing"
)

// CheckTestServer reports whether the mock API at url is reachable. A missing
// server skips the test when SKIP_MOCK_TESTS is true and fails it otherwise.
func CheckTestServer(t *testing.T, url string) bool {
	if _, err := http.Get(url); err != nil {
		const SKIP_MOCK_TESTS = "SKIP_MOCK_TESTS"
		if str, ok := os.LookupEnv(SKIP_MOCK_TESTS); ok {
			skip, err := strconv.ParseBool(str)
			if err != nil {
				t.Fatalf("strconv.ParseBool(os.LookupEnv(%s)) failed: %s", SKIP_MOCK_TESTS, err)
			}
			if skip {
				t.Skip("The test will not run without a mock server running against the OpenAPI spec")
				return false
			}
		}
		t.Errorf("The test will not run without a mock server running against the OpenAPI spec. You can set the environment variable %s to true to skip running any tests that require the mock server", SKIP_MOCK_TESTS)
		return false
	}
	return true
}

// LiveBaseURL returns TEST_API_BASE_URL, skipping the test when it is unset.
func LiveBaseURL(t *testing.T) string {
	t.Helper()
	baseURL, ok := os.LookupEnv("TEST_API_BASE_URL")
	if !ok {
		t.Skip("TEST_API_BASE_URL is not set")
	}
	return baseURL
}
