// Package mqtt publishes evaluated house states to an MQTT broker.
//
// Every evaluation becomes one JSON event on <topic_root>/<house>/state.
package mqtt
