// Package linksearch implements link-only auxiliary providers.
//
// These sites have no usable API. The adapter issues the site's search URL
// and reports a canonical title link when the site redirects straight to a
// title page, or when the result page lists a title link. Results carry only
// a URL and never contribute synonyms.
package linksearch
