package custody

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Address identifies an account that can hold value: a custody unit, the
// administrator's payout account, or a buyer.
type Address string

// ErrEmptyAddress is returned when an address is blank after normalization.
var ErrEmptyAddress = errors.New("address is empty")

const addressBytes = 20

// DeriveAddress computes the custody address for the album with the given
// sequence number. The result is the last 20 bytes of
// keccak256(registry || uint64be(id)), hex encoded with a 0x prefix, so the
// same registry never hands out the same address twice.
func DeriveAddress(registry string, id int64) Address {
	hash := sha3.NewLegacyKeccak256()
	hash.Write([]byte(registry))
	var seq [8]byte
	binary.BigEndian.PutUint64(seq[:], uint64(id))
	hash.Write(seq[:])
	sum := hash.Sum(nil)
	return Address("0x" + hex.EncodeToString(sum[len(sum)-addressBytes:]))
}

// ParseAddress trims and lower-cases an account identifier.
func ParseAddress(value string) (Address, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return "", ErrEmptyAddress
	}
	return Address(normalized), nil
}

// IsDerived reports whether the address has the 0x-prefixed 20-byte hex
// shape produced by DeriveAddress.
func (a Address) IsDerived() bool {
	s := string(a)
	if !strings.HasPrefix(s, "0x") || len(s) != 2+addressBytes*2 {
		return false
	}
	_, err := hex.DecodeString(s[2:])
	return err == nil
}

func (a Address) String() string {
	return string(a)
}
