package models

import "time"

// UnknownIP is the sentinel address recorded when no client IP could be determined
const UnknownIP = "0.0.0.0"

// LoginStatus is the outcome of a single authentication attempt
type LoginStatus string

const (
	LoginStatusSuccess    LoginStatus = "success"
	LoginStatusFailed     LoginStatus = "failed"
	LoginStatusBlocked    LoginStatus = "blocked"
	LoginStatusSuspicious LoginStatus = "suspicious"
)

// Valid reports whether s is one of the known login statuses
func (s LoginStatus) Valid() bool {
	switch s {
	case LoginStatusSuccess, LoginStatusFailed, LoginStatusBlocked, LoginStatusSuspicious:
		return true
	}
	return false
}

// FailedLoginStatuses are the statuses reported by failed-attempt queries
var FailedLoginStatuses = []LoginStatus{LoginStatusFailed, LoginStatusBlocked, LoginStatusSuspicious}

// DeviceType classifies the client hardware
type DeviceType string

const (
	DeviceTypeMobile  DeviceType = "mobile"
	DeviceTypeTablet  DeviceType = "tablet"
	DeviceTypeDesktop DeviceType = "desktop"
)

// DeviceInfo is derived from the user-agent string of a login attempt
type DeviceInfo struct {
	Browser        string     `json:"browser,omitempty"`
	BrowserVersion string     `json:"browserVersion,omitempty"`
	OS             string     `json:"os,omitempty"`
	OSVersion      string     `json:"osVersion,omitempty"`
	DeviceType     DeviceType `json:"deviceType,omitempty"`
	UserAgent      string     `json:"userAgent,omitempty"`
}

// LocationInfo is derived from an IP geolocation lookup
type LocationInfo struct {
	Country     string  `json:"country,omitempty"`
	CountryCode string  `json:"countryCode,omitempty"`
	Region      string  `json:"region,omitempty"`
	City        string  `json:"city,omitempty"`
	Latitude    float64 `json:"latitude,omitempty"`
	Longitude   float64 `json:"longitude,omitempty"`
	Timezone    string  `json:"timezone,omitempty"`
}

// UserLogin is one recorded authentication attempt. Records are append-only.
type UserLogin struct {
	ID            string        `json:"id"`
	UserID        *string       `json:"user_id"`
	UserName      string        `json:"user_name"`
	Email         string        `json:"email"`
	IPAddress     string        `json:"ip_address"`
	DeviceInfo    DeviceInfo    `json:"device_info"`
	LoginTime     time.Time     `json:"login_time"`
	Status        LoginStatus   `json:"status"`
	FailureReason *string       `json:"failure_reason"`
	SessionID     *string       `json:"session_id"`
	Location      *LocationInfo `json:"location"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// ClientInfo is the raw client signal captured from the inbound request
type ClientInfo struct {
	UserAgent string
	IPAddress string
}

// LoginAttempt is the input for recording a login attempt
type LoginAttempt struct {
	UserID        *string     `validate:"omitempty,uuid"`
	UserName      string      `validate:"max=255"`
	Email         string      `validate:"required,max=255"`
	Status        LoginStatus `validate:"required,oneof=success failed blocked suspicious"`
	FailureReason *string
	SessionID     *string
	Client        ClientInfo
}

// RecentLoginActivity is the flattened display projection of a UserLogin
type RecentLoginActivity struct {
	ID            string      `json:"id"`
	UserID        *string     `json:"user_id"`
	Email         string      `json:"email"`
	IPAddress     string      `json:"ip_address"`
	Browser       *string     `json:"browser"`
	OS            *string     `json:"os"`
	Country       *string     `json:"country"`
	City          *string     `json:"city"`
	LoginTime     time.Time   `json:"login_time"`
	Status        LoginStatus `json:"status"`
	FailureReason *string     `json:"failure_reason"`
}

// LoginStats aggregates one account's logins over a trailing window
type LoginStats struct {
	TotalLogins      int64      `json:"total_logins"`
	SuccessfulLogins int64      `json:"successful_logins"`
	FailedLogins     int64      `json:"failed_logins"`
	UniqueIPs        int64      `json:"unique_ips"`
	LastLogin        *time.Time `json:"last_login"`
}

// LoginHistory is one page of login records plus the total record count
type LoginHistory struct {
	Logins []*UserLogin `json:"logins"`
	Total  int          `json:"total"`
}

// DeviceUsage groups successful logins sharing a browser and OS
type DeviceUsage struct {
	DeviceInfo DeviceInfo `json:"device_info"`
	LastUsed   time.Time  `json:"last_used"`
	LoginCount int        `json:"login_count"`
}

// LoginLocation is the ip/location pair used by suspicious-activity analysis
type LoginLocation struct {
	IPAddress string
	Location  *LocationInfo
}

// SuspiciousActivity is the result of a suspicious-activity check
type SuspiciousActivity struct {
	IsSuspicious bool     `json:"isSuspicious"`
	Reason       string   `json:"reason,omitempty"`
	RecentIPs    []string `json:"recentIps"`
}
