//go:build !infectordebug

package game

// debugInvariants turns on score checks after every board write.
const debugInvariants = false
