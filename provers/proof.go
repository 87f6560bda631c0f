package prover

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/backend"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"
	"github.com/ethereum/go-ethereum/common"
	circuit "github.com/kysee/zk-arith/circuits"
	"github.com/kysee/zk-arith/publicdata"
	"github.com/kysee/zk-arith/types"
)

// Prove proves the public input circuit and every chunk of w, checks each
// proof against its verifying key and writes the proofs to OutputDir.
func (p *Prover) Prove(w *Witness) error {
	buildDir := p.config.BuildDir()

	piKeys, err := LoadOrSetup(buildDir, PublicInputCircuitName, &circuit.PublicInputCircuit{})
	if err != nil {
		return err
	}
	hi, lo := publicdata.SplitDigest(w.Digest)
	piProof, err := p.generateProof(piKeys, circuit.NewPublicInputAssignment(w.PublicData), hi, lo)
	if err != nil {
		return err
	}
	if err := p.writeJSON(fmt.Sprintf("public-input-%d.json", w.Block.Context.Number), piProof); err != nil {
		return err
	}

	name := RwFingerprintCircuitName(p.config.ChunkRws)
	rwKeys, err := LoadOrSetup(buildDir, name, circuit.NewRwFingerprintCircuit(p.config.ChunkRws))
	if err != nil {
		return err
	}
	for i := range w.Chunks {
		c := &w.Chunks[i]
		assignment := circuit.NewRwFingerprintAssignment(c.Table, w.Challenges, c.Prev, c.Next)
		proofData, err := p.generateProof(rwKeys, assignment,
			frBig(w.Challenges.Alpha), frBig(w.Challenges.Gamma),
			frBig(c.Prev.TraceOrder), frBig(c.Next.TraceOrder),
			frBig(c.Prev.Chronological), frBig(c.Next.Chronological),
		)
		if err != nil {
			return fmt.Errorf("chunk %d: %w", i, err)
		}
		if err := p.writeJSON(fmt.Sprintf("rw-chunk-%d-%d.json", w.Block.Context.Number, i), proofData); err != nil {
			return err
		}
	}
	return nil
}

// generateProof proves assignment, verifies the proof and encodes it with
// the given public inputs for the Solidity verifier.
func (p *Prover) generateProof(keys *Keys, assignment frontend.Circuit, publicInputs ...*big.Int) (*types.ProofData, error) {
	fullWitness, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("failed to create witness: %w", err)
	}
	publicWitness, err := fullWitness.Public()
	if err != nil {
		return nil, fmt.Errorf("failed to extract public witness: %w", err)
	}

	p.log.Info().Str("circuit", keys.Name).Msg("generating proof")
	proof, err := groth16.Prove(keys.CCS, keys.PK, fullWitness,
		backend.WithProverHashToFieldFunction(sha256.New()))
	if err != nil {
		return nil, fmt.Errorf("proof generation failed: %w", err)
	}
	if err := groth16.Verify(proof, keys.VK, publicWitness,
		backend.WithVerifierHashToFieldFunction(sha256.New())); err != nil {
		return nil, fmt.Errorf("proof verification failed: %w", err)
	}

	// Convert to Solidity format
	_proof, ok := proof.(interface{ MarshalSolidity() []byte })
	if !ok {
		return nil, fmt.Errorf("proof does not implement MarshalSolidity()")
	}
	proofSolidity := _proof.MarshalSolidity()
	p.log.Info().Str("circuit", keys.Name).Int("bytes", len(proofSolidity)).Msg("proof generated")

	inputs := make([][]byte, len(publicInputs))
	for i, in := range publicInputs {
		inputs[i] = common.BigToHash(in).Bytes()
	}
	return types.CreateProofData(proofSolidity, inputs...), nil
}

func frBig(e fr.Element) *big.Int {
	return e.BigInt(new(big.Int))
}

func (p *Prover) writeJSON(name string, v any) error {
	dir := p.config.Path(p.config.OutputDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	jsonBlob, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, jsonBlob, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	p.log.Info().Str("path", path).Msg("saved")
	return nil
}
