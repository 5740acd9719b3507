// Package apicommon provides common types, constants, and helper functions
// for the API.
package apicommon

// MetadataKey is a type to define the key for the metadata stored in the
// context.
type MetadataKey string

// CustomerMetadataKey is the key used to store the authenticated customer
// email in the context.
const CustomerMetadataKey MetadataKey = "customerEmail"
