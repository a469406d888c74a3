// Package resolver computes effective permission sets.
//
// A resolution merges four independent grant sources with a fixed
// precedence: roles assigned directly to the user, roles granted to the
// user's groups, roles inherited from ancestor securable items when the
// caller opts in to shared permissions, and finally the user's granular
// overrides. Denied overrides strictly dominate every other source.
//
// Resolution is stateless and read-only. The directory reads fan out
// concurrently and join before aggregation; a failed read fails the whole
// resolution with the store's error, never with a partial result.
package resolver
