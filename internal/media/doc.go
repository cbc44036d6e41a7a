// Package media holds the small vocabulary shared by every layer of tagscout:
// the Medium enum and the SearchRequest produced by tag extraction.
package media
