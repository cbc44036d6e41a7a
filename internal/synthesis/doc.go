// Package synthesis merges a resolved entity into the display-agnostic
// record handed to presentation. Every field is taken independently from the
// highest-ranked provider that supplies it.
package synthesis
