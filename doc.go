// Package goATM implements the session controller of a single automated teller
// machine: card insertion, PIN verification with lockout after repeated
// failures, balance inquiry, deposit and withdrawal.
//
// A [Machine] is assembled with [New] and [Builder.Build] and resolves cards
// through an injected [Directory]. Each card cycle moves through
// [StateNoCard], [StateCardPresent] and [StateAuthenticated]; [Machine.Logout]
// or [Machine.Transact] returns it to StateNoCard on every exit path.
//
// # Architecture boundaries
//
// goATM is the public surface. It exposes [Machine], [Builder], [Config],
// [Account], [Directory] and [MemoryDirectory]. Persistent directory back-ends
// live in the directory sub-package; exact money arithmetic lives in money;
// PIN hashing and format policy live in pin. The interactive console driver
// lives under internal/driver and is never exported.
//
// # What this package must NOT do
//
//   - Log PINs, PIN hashes or any derivative of them.
//   - Keep a failed-attempt count outside the Account.
//   - Copy balance state out of the *Account the Directory returned.
//   - Unlock a card. Unlocking is an out-of-band provisioning action.
package goATM
