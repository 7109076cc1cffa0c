// Package normalize turns the many historical response shapes of the Threads
// API into canonical models.
//
// Every lookup is an ordered list of small extractors; the first one that
// yields a value wins. Nothing here returns an error or panics: missing or
// mistyped fields degrade to zero values and entities without an identifier
// are dropped.
package normalize
