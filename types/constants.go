package types

const (
	// G1PointSize is the size of an uncompressed BN254 G1 point (X ‖ Y).
	G1PointSize = 64
	// G2PointSize is the size of an uncompressed BN254 G2 point in EIP-197
	// order (X.imag ‖ X.real ‖ Y.imag ‖ Y.real).
	G2PointSize = 128
	// LamportsPerSol is the base-unit multiplier of the settlement asset.
	LamportsPerSol uint64 = 1_000_000_000
)
