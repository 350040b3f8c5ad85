package scraper

import (
	"github.com/rohmanhakim/salon-scraper/internal/extractor"
)

// SalonData bundles the two result collections one full scrape produces.
// Either list may be incomplete when individual pages failed.
type SalonData struct {
	Stylists []extractor.StylistRecord
	Coupons  []extractor.CouponRecord
}
