package services

import (
	"regexp"
	"strings"

	"github.com/vicbox/starterkit/internal/models"
)

// unknownUserAgent is recorded when the request carried no User-Agent header
const unknownUserAgent = "Unknown"

var (
	chromeVersion  = regexp.MustCompile(`Chrome/(\d+)`)
	safariVersion  = regexp.MustCompile(`Version/(\d+)`)
	firefoxVersion = regexp.MustCompile(`Firefox/(\d+)`)
	edgeVersion    = regexp.MustCompile(`Edg/(\d+)`)

	macOSVersion   = regexp.MustCompile(`Mac OS X (\d+[._]\d+)`)
	androidVersion = regexp.MustCompile(`Android (\d+)`)
	iOSVersion     = regexp.MustCompile(`OS (\d+[._]\d+)`)

	tabletPattern = regexp.MustCompile(`(?i)tablet|ipad|playbook|silk`)
	mobilePattern = regexp.MustCompile(`Mobile|Android|iP(hone|od)|IEMobile|BlackBerry|Kindle|Silk-Accelerated|(hpw|web)OS|Opera M(obi|ini)`)
)

// ParseUserAgent derives device metadata from a raw User-Agent header using
// simple first-match heuristics. It never fails; unrecognised input yields
// "Unknown" browser and OS and a desktop device type.
func ParseUserAgent(userAgent string) models.DeviceInfo {
	if strings.TrimSpace(userAgent) == "" {
		userAgent = unknownUserAgent
	}

	info := models.DeviceInfo{UserAgent: userAgent}
	info.Browser, info.BrowserVersion = detectBrowser(userAgent)
	info.OS, info.OSVersion = detectOS(userAgent)
	info.DeviceType = detectDeviceType(userAgent)

	return info
}

func detectBrowser(ua string) (string, string) {
	switch {
	case strings.Contains(ua, "Chrome") && !strings.Contains(ua, "Edg"):
		return "Chrome", firstGroup(chromeVersion, ua)
	case strings.Contains(ua, "Safari") && !strings.Contains(ua, "Chrome"):
		return "Safari", firstGroup(safariVersion, ua)
	case strings.Contains(ua, "Firefox"):
		return "Firefox", firstGroup(firefoxVersion, ua)
	case strings.Contains(ua, "Edg"):
		return "Edge", firstGroup(edgeVersion, ua)
	default:
		return "Unknown", ""
	}
}

// detectOS resolves the operating system. Android and iOS agents also carry
// "Linux" and "like Mac OS X" markers, so the mobile platform wins over the
// desktop one it is built on.
func detectOS(ua string) (string, string) {
	isIOS := strings.Contains(ua, "iOS") || strings.Contains(ua, "iPhone") || strings.Contains(ua, "iPad")

	switch {
	case strings.Contains(ua, "Windows"):
		return "Windows", windowsVersion(ua)
	case strings.Contains(ua, "Mac OS X") && !isIOS:
		return "macOS", strings.Replace(firstGroup(macOSVersion, ua), "_", ".", 1)
	case strings.Contains(ua, "Linux") && !strings.Contains(ua, "Android"):
		return "Linux", ""
	case strings.Contains(ua, "Android"):
		return "Android", firstGroup(androidVersion, ua)
	case isIOS:
		return "iOS", strings.Replace(firstGroup(iOSVersion, ua), "_", ".", 1)
	default:
		return "Unknown", ""
	}
}

func windowsVersion(ua string) string {
	switch {
	case strings.Contains(ua, "Windows NT 10.0"):
		return "10"
	case strings.Contains(ua, "Windows NT 6.3"):
		return "8.1"
	case strings.Contains(ua, "Windows NT 6.2"):
		return "8"
	}
	return ""
}

func detectDeviceType(ua string) models.DeviceType {
	if tabletPattern.MatchString(ua) || isAndroidTablet(ua) {
		return models.DeviceTypeTablet
	}
	if mobilePattern.MatchString(ua) {
		return models.DeviceTypeMobile
	}
	return models.DeviceTypeDesktop
}

// isAndroidTablet reports an "android" marker with no "mobi" anywhere after it
func isAndroidTablet(ua string) bool {
	lower := strings.ToLower(ua)
	idx := strings.LastIndex(lower, "android")
	if idx < 0 {
		return false
	}
	return !strings.Contains(lower[idx+len("android"):], "mobi")
}

func firstGroup(re *regexp.Regexp, s string) string {
	if m := re.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return ""
}
