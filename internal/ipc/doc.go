// Package ipc exposes the daemon over JSON-RPC Unix sockets and ships the
// matching client used by the CLI.
//
// It owns socket lifecycle management and the request/response DTOs. Catalog
// errors cross the socket as "[kind] message" and the client turns them back
// into *RemoteError values that unwrap to the catalog sentinels, so CLI code
// can keep using errors.Is.
//
// Reuse these types when adding new RPC endpoints to keep the protocol stable
// and compatible with existing command implementations.
package ipc
