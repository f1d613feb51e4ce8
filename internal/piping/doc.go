// Package piping talks to a piping server: an HTTP relay where one client
// PUTs a stream to a path and another GETs the same path to receive it.
// [Client.Get] turns a response body into a relay source and [Client.Put]
// turns a streaming request body into a relay sink. HTTP/3 is used when the
// client is configured for it.
package piping
