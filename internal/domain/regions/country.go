package regions

import (
	"net"
	"strings"
)

var countryToRegion = map[string]string{
	// North America
	"US": RegionUS, "CA": RegionUS, "MX": RegionUS,

	// European Union plus close neighbours billed in EUR
	"AT": RegionEU, "BE": RegionEU, "BG": RegionEU, "HR": RegionEU, "CY": RegionEU,
	"CZ": RegionEU, "DK": RegionEU, "EE": RegionEU, "FI": RegionEU, "FR": RegionEU,
	"DE": RegionEU, "GR": RegionEU, "HU": RegionEU, "IE": RegionEU, "IT": RegionEU,
	"LV": RegionEU, "LT": RegionEU, "LU": RegionEU, "MT": RegionEU, "NL": RegionEU,
	"PL": RegionEU, "PT": RegionEU, "RO": RegionEU, "SK": RegionEU, "SI": RegionEU,
	"ES": RegionEU, "SE": RegionEU, "GB": RegionEU, "CH": RegionEU, "NO": RegionEU,
	"IS": RegionEU,

	// South America
	"BR": RegionBR, "AR": RegionBR, "BO": RegionBR, "CL": RegionBR, "CO": RegionBR,
	"EC": RegionBR, "GY": RegionBR, "PY": RegionBR, "PE": RegionBR, "SR": RegionBR,
	"UY": RegionBR, "VE": RegionBR,
}

// ForCountry maps an ISO-3166 alpha-2 code to a region id. Unknown codes yield
// fallback.
func ForCountry(countryCode, fallback string) string {
	if r, ok := countryToRegion[strings.ToUpper(strings.TrimSpace(countryCode))]; ok {
		return r
	}
	return fallback
}

// IsLocalAddress reports whether ip can never be geolocated: loopback,
// private, link-local, unspecified, or not an IP at all.
func IsLocalAddress(ip string) bool {
	parsed := net.ParseIP(strings.TrimSpace(ip))
	if parsed == nil {
		return true
	}
	return parsed.IsLoopback() ||
		parsed.IsPrivate() ||
		parsed.IsUnspecified() ||
		parsed.IsLinkLocalUnicast() ||
		parsed.IsLinkLocalMulticast()
}
