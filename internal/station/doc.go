// Package station owns the live-data core of the temperature logger.
//
// A Station ties the reading generator, the history store, the telemetry hub
// and the optional sinks into one timeline. Ticks and attaches are serialised
// by a single mutex: an attaching viewer's bootstrap reflects every reading
// published before it and none published after.
package station
