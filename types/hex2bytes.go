package types

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

func HexToBytes(hexStr string) ([]byte, error) {
	return hex.DecodeString(strings.TrimPrefix(hexStr, "0x"))
}

// HexBytes is a byte string encoded as 0x-prefixed hex in JSON. Base64 is
// accepted on input for traces exported by older tracers.
type HexBytes []byte

func (hb HexBytes) String() string {
	return "0x" + hex.EncodeToString(hb)
}

// Keccak256 is the code hash of hb.
func (hb HexBytes) Keccak256() common.Hash {
	return crypto.Keccak256Hash(hb)
}

func (hb HexBytes) MarshalJSON() ([]byte, error) {
	return []byte(`"` + hb.String() + `"`), nil
}

func (hb *HexBytes) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("invalid hex string: %s", data)
	}

	val := string(data[1 : len(data)-1])
	if isHex(val) {
		bz, err := HexToBytes(val)
		if err != nil {
			return err
		}
		*hb = bz
		return nil
	}

	bz, err := base64.StdEncoding.DecodeString(val)
	if err != nil {
		return err
	}
	*hb = bz
	return nil
}

func isHex(s string) bool {
	v := strings.TrimPrefix(s, "0x")
	if len(v)%2 != 0 {
		return false
	}
	for _, b := range []byte(v) {
		if !(b >= '0' && b <= '9' || b >= 'a' && b <= 'f' || b >= 'A' && b <= 'F') {
			return false
		}
	}
	return true
}
