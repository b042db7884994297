// Package app provides the application service layer.
//
// Orchestrates the use cases behind the HTTP handlers: listing trending and
// custom timers, resolving a single timer, and creating a custom timer from a
// form submission (limit check, validation, upload, session append).
// Handlers own the session lifecycle; the service only reads and mutates the
// values of the session it is given.
package app
