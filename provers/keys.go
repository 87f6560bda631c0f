package prover

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/solidity"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	circuit "github.com/kysee/zk-arith/circuits"
)

const PublicInputCircuitName = "PublicInputCircuit"

// RwFingerprintCircuitName names the fingerprint circuit of a row budget.
// Its keys only serve chunks of that budget.
func RwFingerprintCircuitName(rows int) string {
	return fmt.Sprintf("RwFingerprintCircuit_%d", rows)
}

// Keys is a compiled circuit with its groth16 keys.
type Keys struct {
	Name string
	CCS  constraint.ConstraintSystem
	PK   groth16.ProvingKey
	VK   groth16.VerifyingKey
}

// Circuits lists every circuit a chunk budget needs.
func Circuits(chunkRws int) map[string]frontend.Circuit {
	return map[string]frontend.Circuit{
		PublicInputCircuitName:             &circuit.PublicInputCircuit{},
		RwFingerprintCircuitName(chunkRws): circuit.NewRwFingerprintCircuit(chunkRws),
	}
}

func keyPaths(buildDir, name string) (ccsPath, pkPath, vkPath string) {
	return filepath.Join(buildDir, name+".ccs"),
		filepath.Join(buildDir, name+".pk"),
		filepath.Join(buildDir, name+".vk")
}

// SetupCircuit compiles c, runs the groth16 setup and saves everything to
// buildDir.
func SetupCircuit(buildDir, name string, c frontend.Circuit) (*Keys, error) {
	if err := os.MkdirAll(buildDir, 0755); err != nil {
		return nil, err
	}
	ccsPath, pkPath, vkPath := keyPaths(buildDir, name)

	println("🕧 Compile", name, "circuit...")
	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, c)
	if err != nil {
		return nil, fmt.Errorf("failed to compile %s: %w", name, err)
	}
	println("constraints:", ccs.GetNbConstraints(), "public inputs:", ccs.GetNbPublicVariables())
	println("✅ Compile complete")

	println("🕧 Generating proving and verifying keys...")
	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, fmt.Errorf("failed to setup %s: %w", name, err)
	}

	for _, out := range []struct {
		path string
		obj  io.WriterTo
	}{{ccsPath, ccs}, {pkPath, pk}, {vkPath, vk}} {
		println("saving to", out.path, "...")
		if err := writeTo(out.path, out.obj); err != nil {
			return nil, err
		}
	}
	println("✅ Setup complete")

	return &Keys{Name: name, CCS: ccs, PK: pk, VK: vk}, nil
}

// LoadKeys reads a circuit saved by SetupCircuit.
func LoadKeys(buildDir, name string) (*Keys, error) {
	ccsPath, pkPath, vkPath := keyPaths(buildDir, name)

	keys := &Keys{
		Name: name,
		CCS:  groth16.NewCS(ecc.BN254),
		PK:   groth16.NewProvingKey(ecc.BN254),
		VK:   groth16.NewVerifyingKey(ecc.BN254),
	}
	for _, in := range []struct {
		path string
		obj  io.ReaderFrom
	}{{ccsPath, keys.CCS}, {pkPath, keys.PK}, {vkPath, keys.VK}} {
		if err := readFrom(in.path, in.obj); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

// LoadVerifyingKey reads only the verifying key of a saved circuit.
func LoadVerifyingKey(buildDir, name string) (groth16.VerifyingKey, error) {
	_, _, vkPath := keyPaths(buildDir, name)
	vk := groth16.NewVerifyingKey(ecc.BN254)
	if err := readFrom(vkPath, vk); err != nil {
		return nil, err
	}
	return vk, nil
}

// LoadOrSetup loads the saved circuit or sets it up when nothing is saved.
func LoadOrSetup(buildDir, name string, c frontend.Circuit) (*Keys, error) {
	keys, err := LoadKeys(buildDir, name)
	if err == nil {
		return keys, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	return SetupCircuit(buildDir, name, c)
}

// ExportSolidity writes the Solidity verifier of vk to path.
func ExportSolidity(vk groth16.VerifyingKey, path string) error {
	var buf bytes.Buffer
	if err := vk.ExportSolidity(&buf, solidity.WithHashToFieldFunction(sha256.New())); err != nil {
		return fmt.Errorf("failed to export verifier: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

func writeTo(path string, obj io.WriterTo) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := obj.WriteTo(f); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func readFrom(path string, obj io.ReaderFrom) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := obj.ReadFrom(f); err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	return nil
}
