// Package custody implements the per-album holding account that receives a
// buyer's payment and keeps it isolated from every other album's funds.
//
// A Unit knows nothing about album lifecycle. Receive accepts any positive
// amount; deciding whether a payment is acceptable belongs to the catalog
// registry, which performs its checks in the same transaction before calling
// Receive. Release is gated by an Authority token so that only the component
// holding the token (the registry) can move funds out.
package custody
