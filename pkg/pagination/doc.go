// Package pagination collects every feature of a region from a paginated
// feature API.
//
// The VWorld data API reports no total page count, so pages are fetched
// strictly in order, one at a time, until one of the stop conditions holds:
//
//   - a page returns fewer features than requested (short-page heuristic)
//   - the API answers NOT FOUND for the page
//   - MaxPages pages have been fetched (silent safety ceiling)
//
// An API error or a transport error aborts the whole region and discards any
// features gathered so far. A fixed courtesy delay separates consecutive page
// requests.
//
// Example usage:
//
//	fetcher, _ := client.New(client.DefaultConfig(apiKey, domain))
//	collector := pagination.NewCollector(fetcher, pagination.DefaultConfig())
//	outcome := collector.Collect(ctx, "44790310")
//	switch outcome.Status {
//	case pagination.StatusCollected:
//		fmt.Println(outcome.Collection.Len(), "parcels")
//	case pagination.StatusEmpty:
//		fmt.Println("no parcels")
//	case pagination.StatusFailed:
//		fmt.Println("failed:", outcome.Reason)
//	}
package pagination
