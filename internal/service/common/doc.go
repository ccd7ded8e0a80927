// Package common holds helpers shared by several services.
//
// It provides a lightweight gRPC client wrapper for the house service with
// timeouts, credentials and the actor (user@hostname) attached to every call.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
