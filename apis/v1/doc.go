// Package v1 defines the ExtractJob file format.
package v1

//go:generate go run ../../scripts/gen-docs.go
