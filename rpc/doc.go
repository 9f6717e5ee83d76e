// Package rpc carries serialized requests and results between processes:
// a websocket channel of msgpack frames, a client proxy implementing
// remote.Proxy, and the server dispatcher that deserializes requests and
// resolves them locally.
//
// Large blob results may travel by reference to a shared file: the server
// writes the file and returns its path, the client reads it and sends an
// acknowledgement, after which the server unlinks it.
package rpc
