// Package errors provides the classified error primitives used across scholarsite.
//
// Every failure that crosses a package boundary is a ClassifiedError carrying
// a category, a severity, a retry strategy and structured context. Adapters
// translate the classification into HTTP status codes for the site server and
// exit codes for the CLI.
//
// Example usage:
//
//	err := errors.WrapError(cause, errors.CategoryContent, "parse content file").
//		WithContext("path", path).
//		Build()
package errors
