package circuit

import (
	"fmt"

	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash/mimc"
	keccak "github.com/consensys/gnark/std/hash/sha3"
	"github.com/consensys/gnark/std/lookup/logderivlookup"
	"github.com/consensys/gnark/std/math/uints"
	"github.com/consensys/gnark/std/multicommit"
	"github.com/kysee/zk-arith/publicdata"
)

// KeccakTableRows is the number of relations in the keccak table region.
const KeccakTableRows = 2

// Challenge domains fed to MiMC together with the commitment.
const (
	challengeKeccakInput = iota + 1
	challengeEvmWord
	challengeLookup
)

// KeccakRow is one keccak relation over a preimage of PreimageLen bytes.
// The output of a disabled row is not constrained.
type KeccakRow struct {
	Enabled frontend.Variable
	Input   [publicdata.PreimageLen]uints.U8
	Output  [32]uints.U8
}

// BlockTable is the value column of the block table for the block itself.
type BlockTable struct {
	Coinbase   frontend.Variable
	Timestamp  frontend.Variable
	Number     frontend.Variable
	Difficulty [32]uints.U8
	GasLimit   frontend.Variable
	BaseFee    [32]uints.U8
	ChainID    frontend.Variable
	BlockHash  [32]uints.U8
}

// PublicInputCircuit binds the keccak digest of the public data preimage
// to the two public instances and the block hash field to the block table.
//
// Every byte cell is range checked against a 256 entry table. Fields are
// folded with base 256 when they fit the scalar field and with the evm
// word challenge otherwise. The whole preimage is folded with the keccak
// input challenge and looked up, together with the folded digest, in the
// keccak table.
type PublicInputCircuit struct {
	Fields [publicdata.FieldCount][publicdata.FieldBytes]uints.U8
	Digest [32]uints.U8
	Block  BlockTable
	Keccak [KeccakTableRows]KeccakRow

	DigestHi frontend.Variable `gnark:",public"`
	DigestLo frontend.Variable `gnark:",public"`
}

// fieldCells are the designated cells of a folded field.
type fieldCells struct {
	value  frontend.Variable
	rlcAcc frontend.Variable
}

func (c *PublicInputCircuit) Define(api frontend.API) error {
	if err := c.checkBytes(api); err != nil {
		return fmt.Errorf("byte range check failed: %w", err)
	}
	c.checkBlockTable(api)
	outputs, err := c.hashKeccakRows(api)
	if err != nil {
		return fmt.Errorf("keccak table failed: %w", err)
	}

	multicommit.WithCommitment(api, func(api frontend.API, commitment frontend.Variable) error {
		ch, err := deriveChallenges(api, commitment)
		if err != nil {
			return err
		}
		capacity := api.Compiler().FieldBitLen() - 1

		// preimage fields
		var rlcAcc frontend.Variable = 0
		var fields [publicdata.FieldCount]fieldCells
		for i := range c.Fields {
			fields[i] = foldField(api, c.Fields[i][:], capacity, ch.evmWord, ch.keccakInput, &rlcAcc)
		}

		blockHash := hornerBytes(api, ch.evmWord, c.Block.BlockHash[:])
		api.AssertIsEqual(fields[publicdata.FieldBlockHash].value, blockHash)

		// digest halves
		var digestAcc frontend.Variable = 0
		hi := foldField(api, c.Digest[:publicdata.HalfBytes], capacity, ch.evmWord, ch.evmWord, &digestAcc)
		lo := foldField(api, c.Digest[publicdata.HalfBytes:], capacity, ch.evmWord, ch.evmWord, &digestAcc)
		api.AssertIsEqual(hi.value, c.DigestHi)
		api.AssertIsEqual(lo.value, c.DigestLo)

		// (1, preimage rlc, preimage length, digest rlc) must be a keccak table row
		query := compressKeccakRow(api, ch.lookup, 1, fields[publicdata.FieldCount-1].rlcAcc, publicdata.PreimageLen, lo.rlcAcc)
		var product frontend.Variable = 1
		for k := range c.Keccak {
			row := &c.Keccak[k]
			entry := compressKeccakRow(api, ch.lookup,
				row.Enabled,
				hornerBytes(api, ch.keccakInput, row.Input[:]),
				api.Mul(row.Enabled, publicdata.PreimageLen),
				hornerBytes(api, ch.evmWord, outputs[k][:]),
			)
			product = api.Mul(product, api.Sub(query, entry))
		}
		api.AssertIsEqual(product, 0)
		return nil
	}, c.committed()...)
	return nil
}

// checkBytes looks every byte cell up in the byte table.
func (c *PublicInputCircuit) checkBytes(api frontend.API) error {
	table := logderivlookup.New(api)
	for i := 0; i < 256; i++ {
		table.Insert(i)
	}
	cells := c.byteCells()
	res := table.Lookup(cells...)
	if len(res) != len(cells) {
		return fmt.Errorf("lookup returned %d values for %d cells", len(res), len(cells))
	}
	for i := range cells {
		api.AssertIsEqual(res[i], cells[i])
	}
	return nil
}

// checkBlockTable bounds the scalar block table values to their widths.
func (c *PublicInputCircuit) checkBlockTable(api frontend.API) {
	api.ToBinary(c.Block.Coinbase, 160)
	for _, v := range []frontend.Variable{c.Block.Timestamp, c.Block.Number, c.Block.GasLimit, c.Block.ChainID} {
		api.ToBinary(v, 64)
	}
}

// hashKeccakRows hashes the input of every row and constrains enabled rows
// to their claimed output. It returns the claimed outputs.
func (c *PublicInputCircuit) hashKeccakRows(api frontend.API) ([KeccakTableRows][32]uints.U8, error) {
	var outputs [KeccakTableRows][32]uints.U8
	for k := range c.Keccak {
		row := &c.Keccak[k]
		api.AssertIsBoolean(row.Enabled)

		hasher, err := keccak.NewLegacyKeccak256(api)
		if err != nil {
			return outputs, fmt.Errorf("new keccak: %w", err)
		}
		hasher.Write(row.Input[:])
		sum := hasher.Sum()
		for i := 0; i < 32; i++ {
			api.AssertIsEqual(api.Mul(row.Enabled, api.Sub(sum[i].Val, row.Output[i].Val)), 0)
		}
		outputs[k] = row.Output
	}
	return outputs, nil
}

func (c *PublicInputCircuit) byteCells() []frontend.Variable {
	cells := make([]frontend.Variable, 0, publicdata.PreimageLen+32+3*32+KeccakTableRows*(publicdata.PreimageLen+32))
	appendBytes := func(bz []uints.U8) {
		for i := range bz {
			cells = append(cells, bz[i].Val)
		}
	}
	for i := range c.Fields {
		appendBytes(c.Fields[i][:])
	}
	appendBytes(c.Digest[:])
	appendBytes(c.Block.Difficulty[:])
	appendBytes(c.Block.BaseFee[:])
	appendBytes(c.Block.BlockHash[:])
	for k := range c.Keccak {
		appendBytes(c.Keccak[k].Input[:])
		appendBytes(c.Keccak[k].Output[:])
	}
	return cells
}

// committed lists the cells the challenges are derived from.
func (c *PublicInputCircuit) committed() []frontend.Variable {
	vars := c.byteCells()
	vars = append(vars, c.DigestHi, c.DigestLo)
	vars = append(vars, c.Block.Coinbase, c.Block.Timestamp, c.Block.Number, c.Block.GasLimit, c.Block.ChainID)
	for k := range c.Keccak {
		vars = append(vars, c.Keccak[k].Enabled)
	}
	return vars
}

type piChallenges struct {
	keccakInput frontend.Variable
	evmWord     frontend.Variable
	lookup      frontend.Variable
}

func deriveChallenges(api frontend.API, commitment frontend.Variable) (piChallenges, error) {
	ch, err := commitmentChallenges(api, commitment, challengeKeccakInput, challengeEvmWord, challengeLookup)
	if err != nil {
		return piChallenges{}, err
	}
	return piChallenges{
		keccakInput: ch[0],
		evmWord:     ch[1],
		lookup:      ch[2],
	}, nil
}

// commitmentChallenges hashes the commitment with each domain.
func commitmentChallenges(api frontend.API, commitment frontend.Variable, domains ...int) ([]frontend.Variable, error) {
	h, err := mimc.NewMiMC(api)
	if err != nil {
		return nil, fmt.Errorf("new mimc: %w", err)
	}
	out := make([]frontend.Variable, len(domains))
	for i, domain := range domains {
		h.Reset()
		h.Write(commitment, domain)
		out[i] = h.Sum()
	}
	return out, nil
}

// foldField folds a field's bytes into its value and advances the running
// accumulator rlcAcc with rlcBase.
func foldField(api frontend.API, bz []uints.U8, capacity int, evmWord, rlcBase frontend.Variable, rlcAcc *frontend.Variable) fieldCells {
	var base frontend.Variable = 256
	if publicdata.UseRLC(len(bz), capacity) {
		base = evmWord
	}
	var acc frontend.Variable = 0
	for i := range bz {
		acc = api.Add(api.Mul(acc, base), bz[i].Val)
		*rlcAcc = api.Add(api.Mul(*rlcAcc, rlcBase), bz[i].Val)
	}
	return fieldCells{value: acc, rlcAcc: *rlcAcc}
}

func hornerBytes(api frontend.API, base frontend.Variable, bz []uints.U8) frontend.Variable {
	var acc frontend.Variable = 0
	for i := range bz {
		acc = api.Add(api.Mul(acc, base), bz[i].Val)
	}
	return acc
}

func compressKeccakRow(api frontend.API, beta, enabled, input, length, output frontend.Variable) frontend.Variable {
	beta2 := api.Mul(beta, beta)
	beta3 := api.Mul(beta2, beta)
	return api.Add(enabled, api.Mul(beta, input), api.Mul(beta2, length), api.Mul(beta3, output))
}
