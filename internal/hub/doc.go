// Package hub speaks the line protocol of the house hub.
//
// The controller asks for readings with "GS." and receives "SU:k=v;k=v." back;
// it pushes actuator settings with "SS:k=v;k=v." and receives "OK.". Booleans
// travel as 1 and 0, the HVAC mode as 1 for Heater and 0 for Chiller.
//
// Simulator implements the hub side for development and tests.
package hub
