// Package pin implements the PIN digit policy and Argon2id hashing of card PINs.
//
// # Output format
//
// Hashes are encoded in PHC string format with unpadded base64 sections:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<key>
//
// [Hasher.NeedsUpgrade] reports hashes produced with weaker parameters so
// provisioning tools can re-hash them.
//
// # What this package must NOT do
//
//   - Store PINs or count failed attempts; accounts own that state.
//   - Import any other goATM package.
//   - Log PINs or derived keys.
package pin
