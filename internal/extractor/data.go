package extractor

// Parsed records

// Sentinel values applied when an optional element is missing from an
// otherwise well-formed page. Kept in the page's own language.
const (
	UnknownStylistName = "名前不明"
	UnknownCouponName  = "不明なクーポン"
)

// StylistRecord is one stylist extracted from a detail page. Position is
// empty when the page does not show one.
type StylistRecord struct {
	Name        string
	Description string
	Position    string
}

// NewStylistRecord builds a record, substituting the name sentinel when
// the name is empty. Description and Position stay empty when absent.
func NewStylistRecord(name string, description string, position string) StylistRecord {
	if name == "" {
		name = UnknownStylistName
	}
	return StylistRecord{
		Name:        name,
		Description: description,
		Position:    position,
	}
}

// CouponRecord is one coupon entry. Price is empty when the page does
// not show one.
type CouponRecord struct {
	Name  string
	Price string
}

func NewCouponRecord(name string, price string) CouponRecord {
	if name == "" {
		name = UnknownCouponName
	}
	return CouponRecord{
		Name:  name,
		Price: price,
	}
}

// Selectors carries the CSS selectors driving extraction. They are
// configuration, not constants: the scraped site's markup can change
// independently of this code.
type Selectors struct {
	StylistLink        string
	StylistName        string
	StylistDescription string
	StylistPosition    string
	// CouponClassName is the bare class name of coupon title elements,
	// e.g. "couponMenuName".
	CouponClassName  string
	CouponPrice      string
	PaginationMarker string
}
