package hfsm

// Version is the release of this module reported by the hfsm command.
const Version = "0.3.0"
