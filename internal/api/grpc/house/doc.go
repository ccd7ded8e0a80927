// Package house implements the gRPC transport of the house service.
//
// Messages are google.protobuf.Struct values: requests carry a house name and a
// user-facing command ("door": "open", "light": "on"), responses carry the same
// vocabulary back together with the audit log of the last evaluation.
// The service descriptor is registered by hand, so no generated code is needed.
package house
