// Package circuits holds the reference gnark circuits of the shielded pool
// and the gadgets they share. Proofs are generated by wallets off-chain; the
// pool only verifies them. These circuits define the statements the pool's
// verifying keys are set up for:
//
//  1. withdraw: knowledge of a note in the accumulator under a known root,
//     its nullifier hash, and a change note holding the remaining value,
//     bound to the recipient, amount and relayer fee.
//  2. transfer: up to two input notes spent and up to two output notes
//     created with the same total value.
//
// Notes commit to H(H(secret, seed), amount) and are nullified by H(seed,
// seed), where H is MiMC over the BN254 scalar field, the pool's default
// two-to-one hash.
package circuits
