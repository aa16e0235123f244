// Package guide holds the per-chat conversation state of the guide assistant
// and the dispatch loop that fills an assistant placeholder from a framed
// response body.
//
// A dispatch appends a user turn and an empty assistant turn as one
// Exchange, raises the chat status, calls the Transport and replays every
// "data:" frame of the body into the placeholder named by the exchange.
// Fragments never look up their target by position, so overlapping
// dispatches in one chat each grow their own placeholder.
package guide
