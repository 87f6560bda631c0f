package types

import (
	"encoding/binary"

	bn254_fr "github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

type ProofData struct {
	Proof         []HexBytes `json:"proof"`
	Commitments   []HexBytes `json:"commitments"`
	CommitmentPok []HexBytes `json:"commitmentPok"`
	PublicInputs  []HexBytes `json:"publicInputs"`
}

// CreateProofData splits a groth16 proof in Solidity encoding: A, B, C
// (8 words), a 4 byte commitment count, two words per commitment and the
// two word proof of knowledge shared by all commitments.
func CreateProofData(proofSolidity []byte, publicInputs ...[]byte) *ProofData {
	word := func(i int, base int) HexBytes {
		start := base + i*bn254_fr.Bytes
		return proofSolidity[start : start+bn254_fr.Bytes]
	}

	// A, B, C
	proof := make([]HexBytes, 8)
	for i := range proof {
		proof[i] = word(i, 0)
	}

	var commitments, pok []HexBytes
	countIdx := 8 * bn254_fr.Bytes
	if len(proofSolidity) >= countIdx+4 {
		n := int(binary.BigEndian.Uint32(proofSolidity[countIdx : countIdx+4]))
		base := countIdx + 4
		if n > 0 && len(proofSolidity) >= base+(2*n+2)*bn254_fr.Bytes {
			for i := 0; i < 2*n; i++ {
				commitments = append(commitments, word(i, base))
			}
			pok = []HexBytes{word(2*n, base), word(2*n+1, base)}
		}
	}

	inputs := make([]HexBytes, len(publicInputs))
	for i, in := range publicInputs {
		inputs[i] = in
	}

	return &ProofData{
		Proof:         proof,
		Commitments:   commitments,
		CommitmentPok: pok,
		PublicInputs:  inputs,
	}
}
