// Package reading defines the temperature reading value object and the
// synthetic random-walk generator that produces it.
//
// A Generator carries a single scalar of state between steps. Each step adds
// uniform noise in [-1, 1] plus a slow sine trend, clamps the result to the
// configured band and rounds it to one decimal place.
package reading
