// Command tomitake streams media through a piping server with optional
// ChaCha20 encryption, and watches or decrypts such streams after checking
// that they carry a playable WebM track declaration.
package main
