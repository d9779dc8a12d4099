// Package store owns per-language supplication progress: which ids are
// completed and which custom supplications exist. Each language is an
// independent partition persisted under two keys in a kv.Store. Writes are
// persisted before the in-memory partition changes.
package store
