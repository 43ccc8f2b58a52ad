package util

import (
	"strings"
)

// agencyByRegion maps craigslist sub-area paths to the county they cover.
var agencyByRegion = map[string]string{
	"/brw/": "Broward County",
	"/mdc/": "Miami-Dade County",
	"/pbc/": "Palm Beach County",
}

var agencyBySubdomain = map[string]string{
	"miami":     "Miami-Dade County",
	"orlando":   "Orlando",
	"daytona":   "Daytona Beach",
	"treasure":  "Treasure Coast",
	"tampa":     "Tampa Bay",
	"fortmyers": "Fort Myers",
}

// InferAgency guesses the region label for a classifieds URL: the sub-area
// path wins over the city subdomain. Empty when neither is known.
func InferAgency(raw string) string {
	lower := strings.ToLower(raw)
	for path, agency := range agencyByRegion {
		if strings.Contains(lower, path) {
			return agency
		}
	}
	host := HostOf(raw)
	if sub, _, ok := strings.Cut(host, "."); ok {
		return agencyBySubdomain[sub]
	}
	return ""
}
