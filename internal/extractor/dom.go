package extractor

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

/*
Responsibilities

- Parse fetched page text into a DOM tree
- Extract stylist links, stylist detail, and coupon entries via the
  configured selectors
- Detect the pagination marker on coupon listing pages

Extraction Semantics

- Missing optional elements degrade to sentinel defaults per record
- ParseError is raised only when the expected container set is absent,
  which indicates a structural site change rather than one missing field
- The parser never fetches; it only consumes page text
*/

// paginationPattern matches the "current/total ページ" marker.
var paginationPattern = regexp.MustCompile(`(\d+)/(\d+)ページ`)

type PageParser struct {
	selectors Selectors
}

func NewPageParser(selectors Selectors) PageParser {
	return PageParser{
		selectors: selectors,
	}
}

// Parse converts page text into a queryable document. Any parser-internal
// failure is converted to ParseError.
func (p *PageParser) Parse(pageText string) (*goquery.Document, *ParseError) {
	node, err := html.Parse(strings.NewReader(pageText))
	if err != nil {
		return nil, &ParseError{
			Message: fmt.Sprintf("failed to parse HTML: %v", err),
			Cause:   ErrCauseBadHTML,
		}
	}
	return goquery.NewDocumentFromNode(node), nil
}

// StylistLinks extracts stylist page hrefs from a listing page. The hrefs
// are returned as written in the page; the caller resolves them against
// the page URL. An empty result is a structural failure: a stylist
// listing page always carries at least one stylist anchor.
func (p *PageParser) StylistLinks(doc *goquery.Document) ([]string, *ParseError) {
	var links []string
	doc.Find(p.selectors.StylistLink).Each(func(_ int, sel *goquery.Selection) {
		if href, ok := sel.Attr("href"); ok && href != "" {
			links = append(links, href)
		}
	})

	if len(links) == 0 {
		return nil, &ParseError{
			Message: fmt.Sprintf("no stylist links matched %q", p.selectors.StylistLink),
			Cause:   ErrCauseStructureChanged,
		}
	}
	return links, nil
}

// StylistDetail extracts one stylist record from a detail page. Each
// field degrades to its sentinel independently; ParseError is raised
// only when neither the name nor the description element exists.
func (p *PageParser) StylistDetail(doc *goquery.Document) (StylistRecord, *ParseError) {
	nameSel := doc.Find(p.selectors.StylistName).First()
	descSel := doc.Find(p.selectors.StylistDescription).First()

	if nameSel.Length() == 0 && descSel.Length() == 0 {
		return StylistRecord{}, &ParseError{
			Message: fmt.Sprintf(
				"neither %q nor %q matched anything",
				p.selectors.StylistName, p.selectors.StylistDescription,
			),
			Cause: ErrCauseStructureChanged,
		}
	}

	position := ""
	if p.selectors.StylistPosition != "" {
		position = strings.TrimSpace(doc.Find(p.selectors.StylistPosition).First().Text())
	}

	return NewStylistRecord(
		strings.TrimSpace(nameSel.Text()),
		strings.TrimSpace(descSel.Text()),
		position,
	), nil
}

// Coupons extracts coupon entries from a coupon listing page. The price
// is looked up inside the coupon's enclosing table; a coupon without a
// visible price keeps an empty Price. A page with zero coupon elements
// yields an empty slice, not an error: trailing pagination pages can be
// legitimately empty.
func (p *PageParser) Coupons(doc *goquery.Document) []CouponRecord {
	var coupons []CouponRecord
	doc.Find("." + p.selectors.CouponClassName).Each(func(_ int, sel *goquery.Selection) {
		name := strings.TrimSpace(sel.Text())

		price := ""
		if p.selectors.CouponPrice != "" {
			price = strings.TrimSpace(sel.Closest("table").Find(p.selectors.CouponPrice).First().Text())
		}

		coupons = append(coupons, NewCouponRecord(name, price))
	})
	return coupons
}

// PaginationTotal reads the "current/total ページ" marker from a coupon
// listing page and returns the total page count. It reports false when
// the marker element or its expected text is absent, which simply means
// the listing has a single page.
func (p *PageParser) PaginationTotal(doc *goquery.Document) (int, bool) {
	marker := doc.Find(p.selectors.PaginationMarker).First()
	if marker.Length() == 0 {
		return 0, false
	}

	match := paginationPattern.FindStringSubmatch(marker.Text())
	if match == nil {
		return 0, false
	}

	total, err := strconv.Atoi(match[2])
	if err != nil || total < 1 {
		return 0, false
	}
	return total, true
}
