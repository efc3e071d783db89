// Package vecsearch is a Go client for a vector similarity search service.
//
// A Client implements the Connection contract: connect to an endpoint,
// manage tables and their indexes, insert vectors, and run top-k searches.
// Search results come back as a TopKQueryResult in one of three delivery
// modes:
//   - Eager: rows are materialized before the call returns
//   - Async: the call returns at once; Resolve waits for the rows
//   - Lazy: rows are materialized on first read
//
// The transport is pluggable. HTTP (talking to vecsearchd) is the default;
// Redis/Valkey with the search module and an in-process engine are built in.
//
//	c, err := vecsearch.New(vecsearch.WithRedis(""))
//	if err != nil {
//	    return err
//	}
//	_ = c.Connect(ctx, vecsearch.Endpoint{Host: "localhost", Port: 6379})
//	defer c.Disconnect()
//
//	schema, _ := vecsearch.NewTableSchema("docs", 128, 1024, vecsearch.MetricL2)
//	_ = c.CreateTable(ctx, schema)
//	ids, _ := c.AddVectors(ctx, "docs", vectors, nil)
//
//	res, _ := c.SearchVectors(ctx, "docs", 10, 16, queries, nil, vecsearch.WithAsync())
//	res, err = res.Resolve(5 * time.Second)
//	for i, row := range res.All() {
//	    fmt.Println(i, row)
//	}
package vecsearch
