// Package query parses free-text search patterns into boolean expressions
// and compiles them into SQL predicates for the item store.
//
// Pattern syntax:
//   - Space = OR: "United ZRH" matches items containing either term
//   - Ampersand = AND: "United&ZRH" matches items containing both
//   - Combined: "ZRH EWR&United" means (ZRH OR EWR) AND United
//   - Legacy pipe: "ZRH|EWR" is the same as "ZRH EWR"
//
// Compilation selects between full-text phrase predicates and LIKE substring
// predicates based on the store's reported capability; the boolean structure
// is identical in both cases.
package query
