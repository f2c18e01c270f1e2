// Package sdk is the Go client for the raglited HTTP API. It covers
// document indexing, retrieval, and grounded question answering.
//
// Basic usage:
//
//	client := sdk.New("http://localhost:8080", sdk.WithAPIKey("secret"))
//	answer, err := client.Answer(ctx, "what is late chunking?")
package sdk
