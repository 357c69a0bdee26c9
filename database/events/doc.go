// Package events decodes the JSON events published by the front-end. Every
// event carries the generic envelope (id, type, timestamp); a mapper turns
// the raw message into the type-specific struct the store acts on.
package events
