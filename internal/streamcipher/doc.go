// Package streamcipher implements the symmetric ChaCha20 keystream transform
// applied to relayed chunks, together with key and nonce validation.
//
// A [Cipher] is stateful: its keystream position advances by the length of
// every chunk it transforms, so splitting a stream into chunks never changes
// the output. Encryption and decryption are the same operation.
package streamcipher
