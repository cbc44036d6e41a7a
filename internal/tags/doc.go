// Package tags turns raw chat text into typed search requests.
//
// Three delimiter families map to media: {curly} is anime, <angle> is manga
// and ]reversed square[ is light novel. Doubled delimiters ask for an
// expanded response, but only when the message carries a single tag; any
// additional tag forces every request back to the normal form.
//
// Before scanning, code blocks, inline code, custom emoji and mention markup
// are stripped so their bracket characters never become tags, and
// `!command` spans are intercepted and returned separately.
package tags
