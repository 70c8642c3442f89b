// Package lrmp implements the loss recovery core of LRMP, the Light-weight
// Reliable Multicast Protocol: the table of session entities, the table of
// outstanding loss reports, the queue of scheduled repairs and the shared
// timer service that fires them.
//
// A Recovery ties these together. On a NACK it records one loss event per
// (source, reporter) and arms a randomized repair timer. When a repair for
// the same data is heard from another host first, the local attempt is
// cancelled; the timer still fires but finds nothing to send.
//
// The tables are not synchronized. Recovery guards them with one mutex that
// the timer callbacks take as well.
package lrmp

var Version = "LRMP-1.4.2"
