// Package sitekit embeds the sitekit chat completion proxy and catalog search
// in a Go program, without the HTTP server.
//
// The catalog lives in memory by default, or in Redis/Valkey with the search module.
//
//	client, _ := sitekit.New(ctx,
//	    sitekit.WithRedis("localhost:6379", ""),
//	    sitekit.WithSecret("openai_api_key", os.Getenv("OPENAI_API_KEY")),
//	)
//	defer client.Close()
//
//	fmt.Println(client.Complete(ctx, "Write a product tagline"))
//
//	_, _ = client.Import(ctx, items)
//	res, _ := client.Search(ctx, "Search Item by SKUs", "BLT-1")
//
// # Search pages
//
// A Page keeps its own controls and result set, like one open storefront page.
// Later searches on a page replace the earlier filter.
//
//	page, _ := client.NewPage(ctx)
//	res, _ := page.Search(ctx, "Search by Manufacturer Part Nos.", "M-100")
package sitekit
