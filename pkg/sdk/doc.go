// Package assessrec embeds the assessment recommendation engine in a Go
// program: catalog and vector index are loaded from disk, queries are
// embedded by a caller-provided Embedder, and an optional Generator
// reranks the retrieved candidates.
//
//	engine, _ := assessrec.New(ctx,
//	    assessrec.WithCatalogFile("data/catalog.json"),
//	    assessrec.WithIndexFile("data/index.parquet"),
//	    assessrec.WithEmbedder(myEmbedder),
//	    assessrec.WithGenerator(myGenerator),
//	)
//	rec, _ := engine.Recommend(ctx, "Java developer who collaborates with business teams", 5)
//	for _, item := range rec.Items {
//	    fmt.Println(item.Name, item.URL)
//	}
//
// Without a Generator the engine returns pure similarity ranking.
package assessrec
