package integration

import (
	"fmt"
	"time"
)

const (
	chromeOnWindows = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	safariOnMac     = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15"
)

// TestUser generates unique test user credentials using timestamp
func TestUser(suffix string) (email, password string) {
	email = fmt.Sprintf("test-%d-%s@example.com", time.Now().UnixNano(), suffix)
	password = "TestPassword123!"
	return
}

// TestDescription returns a project description that satisfies the length rules
func TestDescription(name string) string {
	return fmt.Sprintf("Integration fixture for %s project", name)
}
