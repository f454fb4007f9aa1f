package solana

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// Metaplex metadata account layout: 1 byte key, 32 byte update authority,
// 32 byte mint, then name and symbol as u32 length-prefixed strings padded
// with NULs
const metadataHeaderLen = 1 + 32 + 32

var errShortMetadata = errors.New("metadata account too short")

// ParseMetadata extracts the token name and symbol from a Metaplex metadata
// account
func ParseMetadata(data []byte) (name, symbol string, err error) {
	if len(data) < metadataHeaderLen {
		return "", "", errShortMetadata
	}

	offset := metadataHeaderLen
	name, offset, err = readString(data, offset)
	if err != nil {
		return "", "", fmt.Errorf("read name: %w", err)
	}
	symbol, _, err = readString(data, offset)
	if err != nil {
		return "", "", fmt.Errorf("read symbol: %w", err)
	}
	return name, symbol, nil
}

func readString(data []byte, offset int) (string, int, error) {
	if offset+4 > len(data) {
		return "", offset, errShortMetadata
	}
	n := int(binary.LittleEndian.Uint32(data[offset : offset+4]))
	offset += 4
	if n < 0 || offset+n > len(data) {
		return "", offset, errShortMetadata
	}
	s := strings.TrimSpace(strings.ReplaceAll(string(data[offset:offset+n]), "\x00", ""))
	return s, offset + n, nil
}
