package models

// RegionDefault is used when a request does not name a marketplace.
const RegionDefault = "us"

// regionTLDs maps each supported marketplace to the upstream domain suffix.
var regionTLDs = map[string]string{
	"au": "com.au",
	"ca": "ca",
	"de": "de",
	"es": "es",
	"fr": "fr",
	"in": "in",
	"it": "it",
	"jp": "co.jp",
	"uk": "co.uk",
	"us": "com",
}

// RegionSupported reports whether the region code names a known marketplace.
func RegionSupported(region string) bool {
	_, ok := regionTLDs[region]
	return ok
}

// RegionTLD returns the upstream domain suffix for a region.
// Callers must validate the region first; unknown regions return "".
func RegionTLD(region string) string {
	return regionTLDs[region]
}
