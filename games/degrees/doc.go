/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package degrees implements a "connect two players through shared teams"
// puzzle over historical roster data.
//
// A Dataset of matches is normalized into a Graph linking every pair of
// players who appeared on the same team in the same match. ShortestPath runs a
// breadth-first search over that graph, SelectPair draws a random start/end
// pair that is connected but not direct teammates, and Locate finds the match
// that proves a link.
//
// Game ties these together as a state machine:
//
//	loading -> ready -> active -> won
//	   |
//	   +----> error
//
// Every failure is an *Error carrying a Reason, so callers can tell a data
// problem apart from an unplayable filter or an invalid move:
//
//	if _, err := game.Propose(roundID, name); errors.Is(err, degrees.ErrInvalidMove) {
//		// tell the player and let them try again
//	}
package degrees
