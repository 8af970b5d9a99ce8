// Package sqlite implements the vector store on SQLite. One database
// file holds vectors, per-document index status, the content cache and
// persisted usage counters. Vectors are stored as binary blobs, raw
// float32 or int8-quantized; similarity search is a brute-force cosine
// scan over batched reads.
package sqlite
