package internal

import "regexp"

// mobilePattern matches the user-agent fragments that identify phone and
// tablet clients. Kept deliberately coarse: classification only selects the
// credential transport, it never gates authentication.
var mobilePattern = regexp.MustCompile(`(?i)\b(android|iphone|ipod|ipad|windows phone|webos|blackberry|bb10|opera mini|opera mobi|mobile|tablet|silk|kindle)\b`)

// IsMobileOrTablet classifies a user-agent string as a mobile/tablet
// client. An absent or empty user agent classifies as "not mobile": the
// cookie transport is the safest default for unknown clients.
func IsMobileOrTablet(userAgent string) bool {
	if userAgent == "" {
		return false
	}
	return mobilePattern.MatchString(userAgent)
}
