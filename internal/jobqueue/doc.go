// Package jobqueue provides a strict FIFO queue that runs one job at a time.
//
// Each window owns a Queue and runs every touch of its display tree through
// it, so a render step that blocks inside a component hook still holds the
// tree exclusively until it returns. A job's slot is released on every exit
// path; a panicking job releases its slot and reports a *PanicError carrying
// the stack.
package jobqueue
