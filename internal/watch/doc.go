// Package watch implements the terminal dashboard client.
//
// Client keeps a websocket viewer connected, reconnecting after a fixed delay
// whenever the connection drops. Every reconnect yields a fresh bootstrap;
// readings missed while disconnected are not replayed. State folds the
// message stream into what the dashboard shows: the current temperature, a
// trailing chart window and the most recent high-temperature alerts. Model
// renders that state with bubbletea and lipgloss.
package watch
