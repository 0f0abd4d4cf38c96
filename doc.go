// Package promodex embeds the bank promo retrieval pipeline into a host
// process: the same chunking, sync and search machinery the HTTP service
// runs, minus the server.
//
// # Syncing and searching
//
//	client, err := promodex.New(ctx,
//	    promodex.WithRedis("localhost:6379", ""),
//	    promodex.WithEmbedder(embedder, promodex.Fingerprint{
//	        Provider:   "openai",
//	        Model:      "text-embedding-3-small",
//	        Dimensions: 1536,
//	    }),
//	)
//	defer client.Close()
//
//	report, _ := client.Sync(ctx, promos)
//	results, _ := client.Search(ctx, "promo hotel kartu kredit BCA", 5)
//
// # Answering
//
// Ask additionally needs a chat provider and, optionally, a snapshot file
// for degraded-mode answers when the store is down:
//
//	client, err := promodex.New(ctx,
//	    promodex.WithSQLite("promodex.db"),
//	    promodex.WithEmbedder(embedder, fp),
//	    promodex.WithSummarizer(os.Getenv("GROQ_API_KEY"), "", ""),
//	    promodex.WithSnapshot("data/promos.json"),
//	)
//	answer, _ := client.Ask(ctx, "Promo makan apa saja bulan ini?", 5)
package promodex
