// Package pipeline turns chat messages into replies.
//
// A Processor extracts the tags and inline commands of one message, resolves
// every tag concurrently through the resolution engine, synthesizes records
// and returns them in the order the tags appeared, with repeated titles
// removed. Successful lookups are reported to a Recorder without delaying the
// reply, and messages already handled are skipped when a Store is attached.
package pipeline
