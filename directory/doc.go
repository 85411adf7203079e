// Package directory provides persistent goATM.Directory back-ends that load
// card provisioning records from Redis or from a SQL database.
//
// Records are read once per card and materialized into a single *goATM.Account
// that is cached for the life of the process. Balance and lockout changes made
// by a Machine stay in memory; they are not written back.
//
// # What this package must NOT do
//
//   - Return two different *goATM.Account values for one card.
//   - Store or accept plaintext PINs. Provision takes an argon2id encoding.
package directory
