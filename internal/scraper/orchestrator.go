package scraper

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/rohmanhakim/salon-scraper/internal/config"
	"github.com/rohmanhakim/salon-scraper/internal/extractor"
	"github.com/rohmanhakim/salon-scraper/internal/fetcher"
	"github.com/rohmanhakim/salon-scraper/pkg/failure"
)

/*
Responsibilities

- Validate the caller-supplied salon URL before any network activity
- Drive pagination over coupon listing pages
- Fan out concurrent page fetches within the configured bounds
- Aggregate partial results, tolerating individual page failures

Failure Semantics

- A structurally invalid URL fails fast with ValidationError and zero
  outbound calls
- The first page of each listing is required; its failure aborts the
  operation
- Every page after the first is optional: its failure is logged and its
  records are omitted from the merged result
*/

type Orchestrator struct {
	fetcher     fetcher.PageFetcher
	parser      extractor.PageParser
	cfg         config.Config
	pathPattern *regexp.Regexp
	logger      *logrus.Entry
}

func NewOrchestrator(
	pageFetcher fetcher.PageFetcher,
	parser extractor.PageParser,
	cfg config.Config,
	logger *logrus.Logger,
) (*Orchestrator, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	pathPattern, err := regexp.Compile(cfg.SalonPathPattern())
	if err != nil {
		return nil, fmt.Errorf("invalid salon path pattern %q: %w", cfg.SalonPathPattern(), err)
	}

	return &Orchestrator{
		fetcher:     pageFetcher,
		parser:      parser,
		cfg:         cfg,
		pathPattern: pathPattern,
		logger:      logger.WithField("component", "scraper"),
	}, nil
}

// ValidateURL reports whether salonURL points at a salon page on the
// expected domain. Pure predicate; callers decide whether a false result
// becomes a ValidationError.
func (o *Orchestrator) ValidateURL(salonURL string) bool {
	u, err := url.Parse(salonURL)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if u.Host == "" {
		return false
	}

	domain := o.cfg.SalonDomain()
	if u.Host != domain && !strings.HasSuffix(u.Host, "."+domain) {
		return false
	}

	return o.pathPattern.MatchString(u.Path)
}

// StylistLinks fetches the salon's stylist listing page and returns the
// stylist detail URLs, resolved to absolute form.
func (o *Orchestrator) StylistLinks(ctx context.Context, salonURL string) ([]string, failure.ClassifiedError) {
	if !o.ValidateURL(salonURL) {
		return nil, &ValidationError{Message: "invalid salon URL", URL: salonURL}
	}

	listingURL := ensureTrailingSlash(salonURL) + "stylist/"
	o.logger.WithField("url", listingURL).Info("fetching stylist listing")

	pageText, err := o.fetcher.Fetch(ctx, listingURL)
	if err != nil {
		return nil, err
	}

	doc, parseErr := o.parser.Parse(pageText)
	if parseErr != nil {
		return nil, parseErr
	}
	hrefs, parseErr := o.parser.StylistLinks(doc)
	if parseErr != nil {
		return nil, parseErr
	}

	base, urlErr := url.Parse(listingURL)
	if urlErr != nil {
		return nil, &ValidationError{Message: "unparseable listing URL", URL: listingURL}
	}

	links := make([]string, 0, len(hrefs))
	for _, href := range hrefs {
		ref, refErr := url.Parse(href)
		if refErr != nil {
			o.logger.WithField("href", href).Warn("skipping unparseable stylist link")
			continue
		}
		links = append(links, base.ResolveReference(ref).String())
	}

	o.logger.WithField("count", len(links)).Info("stylist links resolved")
	return links, nil
}

// StylistInfo fetches one stylist detail page and extracts its record.
func (o *Orchestrator) StylistInfo(ctx context.Context, stylistURL string) (extractor.StylistRecord, failure.ClassifiedError) {
	pageText, err := o.fetcher.Fetch(ctx, stylistURL)
	if err != nil {
		return extractor.StylistRecord{}, err
	}

	doc, parseErr := o.parser.Parse(pageText)
	if parseErr != nil {
		return extractor.StylistRecord{}, parseErr
	}
	record, parseErr := o.parser.StylistDetail(doc)
	if parseErr != nil {
		return extractor.StylistRecord{}, parseErr
	}
	return record, nil
}

// Coupons fetches the salon's coupon listing. Page 1 is required; the
// pagination marker on it decides how many further pages exist, capped by
// the configured page limit. Pages after the first are fetched
// concurrently and tolerate individual failure.
func (o *Orchestrator) Coupons(ctx context.Context, salonURL string) ([]extractor.CouponRecord, failure.ClassifiedError) {
	if !o.ValidateURL(salonURL) {
		return nil, &ValidationError{Message: "invalid salon URL", URL: salonURL}
	}

	couponURL := ensureTrailingSlash(salonURL) + "coupon/"
	o.logger.WithField("url", couponURL).Info("fetching coupon listing")

	pageText, err := o.fetcher.Fetch(ctx, couponURL)
	if err != nil {
		return nil, err
	}
	doc, parseErr := o.parser.Parse(pageText)
	if parseErr != nil {
		return nil, parseErr
	}

	coupons := o.parser.Coupons(doc)
	if len(coupons) == 0 {
		o.logger.WithField("url", couponURL).Warn("no coupons on first page")
	}

	maxPage := 1
	if total, ok := o.parser.PaginationTotal(doc); ok {
		maxPage = total
		o.logger.WithField("pages", total).Info("pagination marker detected")
	}
	if maxPage > o.cfg.CouponPageLimit() {
		maxPage = o.cfg.CouponPageLimit()
	}

	start := o.cfg.CouponPageStartNumber()
	if start > maxPage {
		return coupons, nil
	}

	// Fan out the remaining pages. Each slot is owned by exactly one
	// goroutine, so the slice needs no lock; a failed page leaves its
	// slot nil and is skipped at merge time.
	pageResults := make([][]extractor.CouponRecord, maxPage-start+1)
	var wg sync.WaitGroup
	for page := start; page <= maxPage; page++ {
		wg.Add(1)
		go func(page int) {
			defer wg.Done()

			pageURL := o.couponPageURL(couponURL, page)
			records, pageErr := o.couponPage(ctx, pageURL)
			if pageErr != nil {
				o.logger.WithError(pageErr).WithFields(logrus.Fields{
					"url":  pageURL,
					"page": page,
				}).Warn("skipping failed coupon page")
				return
			}
			pageResults[page-start] = records
		}(page)
	}
	wg.Wait()

	for _, records := range pageResults {
		coupons = append(coupons, records...)
	}

	o.logger.WithField("count", len(coupons)).Info("coupons collected")
	return coupons, nil
}

func (o *Orchestrator) couponPage(ctx context.Context, pageURL string) ([]extractor.CouponRecord, failure.ClassifiedError) {
	pageText, err := o.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	doc, parseErr := o.parser.Parse(pageText)
	if parseErr != nil {
		return nil, parseErr
	}
	return o.parser.Coupons(doc), nil
}

// couponPageURL merges the page number into the query string under the
// configured parameter name.
func (o *Orchestrator) couponPageURL(couponURL string, page int) string {
	u, err := url.Parse(couponURL)
	if err != nil {
		return couponURL
	}
	q := u.Query()
	q.Set(o.cfg.CouponPageParameterName(), strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String()
}

// AllStylists resolves the stylist links, then fetches detail pages in
// fixed-size chunks with a wait between chunks as burst control on top of
// the fetcher's own gate. Per-stylist failures are logged and omitted;
// results keep the listing order.
func (o *Orchestrator) AllStylists(ctx context.Context, salonURL string) ([]extractor.StylistRecord, failure.ClassifiedError) {
	links, err := o.StylistLinks(ctx, salonURL)
	if err != nil {
		return nil, err
	}

	chunkSize := o.cfg.ChunkSize()
	results := make([]*extractor.StylistRecord, len(links))

	for offset := 0; offset < len(links); offset += chunkSize {
		end := offset + chunkSize
		if end > len(links) {
			end = len(links)
		}

		var wg sync.WaitGroup
		for i := offset; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()

				record, itemErr := o.StylistInfo(ctx, links[i])
				if itemErr != nil {
					o.logger.WithError(itemErr).WithField("url", links[i]).Warn("skipping failed stylist page")
					return
				}
				results[i] = &record
			}(i)
		}
		wg.Wait()

		if end < len(links) {
			if waitErr := sleepContext(ctx, o.cfg.ChunkDelay()); waitErr != nil {
				break
			}
		}
	}

	stylists := make([]extractor.StylistRecord, 0, len(links))
	for _, record := range results {
		if record != nil {
			stylists = append(stylists, *record)
		}
	}

	o.logger.WithFields(logrus.Fields{
		"requested": len(links),
		"collected": len(stylists),
	}).Info("stylists collected")
	return stylists, nil
}

// FetchAllData validates the salon URL, then acquires stylists and
// coupons concurrently. An invalid URL fails before any network call.
func (o *Orchestrator) FetchAllData(ctx context.Context, salonURL string) (SalonData, failure.ClassifiedError) {
	if !o.ValidateURL(salonURL) {
		return SalonData{}, &ValidationError{Message: "invalid salon URL", URL: salonURL}
	}

	var data SalonData
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		stylists, err := o.AllStylists(groupCtx, salonURL)
		if err != nil {
			return err
		}
		data.Stylists = stylists
		return nil
	})
	group.Go(func() error {
		coupons, err := o.Coupons(groupCtx, salonURL)
		if err != nil {
			return err
		}
		data.Coupons = coupons
		return nil
	})

	if err := group.Wait(); err != nil {
		if classified, ok := err.(failure.ClassifiedError); ok {
			return SalonData{}, classified
		}
		return SalonData{}, &ValidationError{Message: err.Error(), URL: salonURL}
	}
	return data, nil
}

func ensureTrailingSlash(rawURL string) string {
	if strings.HasSuffix(rawURL, "/") {
		return rawURL
	}
	return rawURL + "/"
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
