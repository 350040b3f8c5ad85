package fetcher

import (
	"context"

	"github.com/rohmanhakim/salon-scraper/pkg/failure"
)

type PageFetcher interface {
	Fetch(
		ctx context.Context,
		pageURL string,
	) (string, failure.ClassifiedError)
}
