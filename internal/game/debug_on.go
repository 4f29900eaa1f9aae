//go:build infectordebug

package game

const debugInvariants = true
