// Package workflow holds the three front-end flows of the document app: the
// upload controller, the search redirector and the search results renderer.
//
// Each controller receives the UI regions it owns at construction time and
// talks to the backend through the small interfaces in package backend. Event
// wiring lives in events.go; the controllers themselves never look anything
// up by name.
package workflow
