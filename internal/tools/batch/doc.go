// Package batch runs one operation over many Drive IDs and reports the
// outcome of each. A failing item never aborts the rest of the batch.
package batch
