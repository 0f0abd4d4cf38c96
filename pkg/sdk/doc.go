// Package sdk is a typed HTTP client for the promodex service API.
//
//	client, err := sdk.New("http://localhost:8080", sdk.WithAPIKey(apiKey))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	report, _ := client.Sync(ctx, records)
//	results, total, _ := client.Search(ctx, "promo hotel kartu kredit BCA", 5)
//	answer, _ := client.Ask(ctx, sdk.AskRequest{Question: "Promo makan apa saja bulan ini?"})
//
// Service errors carry the machine-readable code from the API and map onto
// sentinel errors:
//
//	if errors.Is(err, sdk.ErrRateLimited) {
//	    // back off and retry
//	}
package sdk
