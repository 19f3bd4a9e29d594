// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

// Package scale implements the compact unsigned integer encoding
// used as the general purpose length prefix of the node codec.
package scale

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

var (
	ErrUintTooLarge = errors.New("unsigned integer too large for compact encoding")
)

// EncodeUint writes the compact encoding of i to the writer:
// 1 byte for i < 2^6, 2 bytes for i < 2^14, 4 bytes for i < 2^30
// and a length byte followed by little endian data bytes above that.
// The two low bits of the first byte select the mode.
func EncodeUint(writer io.Writer, i uint) (err error) {
	switch {
	case i < 1<<6:
		err = binary.Write(writer, binary.LittleEndian, byte(i)<<2)
	case i < 1<<14:
		err = binary.Write(writer, binary.LittleEndian, uint16(i<<2)+1)
	case i < 1<<30:
		err = binary.Write(writer, binary.LittleEndian, uint32(i<<2)+2)
	default:
		o := make([]byte, 8)
		m := i
		var numBytes int
		for numBytes = 0; numBytes < 256 && m != 0; numBytes++ {
			m = m >> 8
		}

		topSixBits := uint8(numBytes - 4)
		lengthByte := topSixBits<<2 + 3

		err = binary.Write(writer, binary.LittleEndian, lengthByte)
		if err == nil {
			binary.LittleEndian.PutUint64(o, uint64(i))
			err = binary.Write(writer, binary.LittleEndian, o[0:numBytes])
		}
	}
	return err
}

// DecodeUint reads a compact encoded unsigned integer from the reader.
func DecodeUint(reader io.Reader) (i uint, err error) {
	firstByte, err := readByte(reader)
	if err != nil {
		return 0, fmt.Errorf("reading first byte: %w", err)
	}

	mode := firstByte & 0b11
	switch mode {
	case 0:
		return uint(firstByte >> 2), nil
	case 1:
		secondByte, err := readByte(reader)
		if err != nil {
			return 0, fmt.Errorf("reading second byte: %w", err)
		}
		return (uint(firstByte) | uint(secondByte)<<8) >> 2, nil
	case 2:
		buffer := make([]byte, 4)
		buffer[0] = firstByte
		_, err = io.ReadFull(reader, buffer[1:])
		if err != nil {
			return 0, fmt.Errorf("reading four byte mode: %w", err)
		}
		return uint(binary.LittleEndian.Uint32(buffer)) >> 2, nil
	default:
		numBytes := int(firstByte>>2) + 4
		if numBytes > 8 {
			return 0, fmt.Errorf("%w: %d data bytes", ErrUintTooLarge, numBytes)
		}
		buffer := make([]byte, 8)
		_, err = io.ReadFull(reader, buffer[:numBytes])
		if err != nil {
			return 0, fmt.Errorf("reading big integer mode: %w", err)
		}
		return uint(binary.LittleEndian.Uint64(buffer)), nil
	}
}

// EncodeBytes writes the compact length of b followed by b itself.
func EncodeBytes(writer io.Writer, b []byte) (err error) {
	err = EncodeUint(writer, uint(len(b)))
	if err != nil {
		return fmt.Errorf("encoding length: %w", err)
	}
	_, err = writer.Write(b)
	if err != nil {
		return fmt.Errorf("writing bytes: %w", err)
	}
	return nil
}

// MarshalBytes returns the compact length prefixed encoding of b.
func MarshalBytes(b []byte) []byte {
	buffer := make([]byte, 0, len(b)+4)
	switch {
	case len(b) < 1<<6:
		buffer = append(buffer, byte(len(b))<<2)
	case len(b) < 1<<14:
		buffer = binary.LittleEndian.AppendUint16(buffer, uint16(len(b)<<2)+1)
	default:
		buffer = binary.LittleEndian.AppendUint32(buffer, uint32(len(b)<<2)+2)
	}
	return append(buffer, b...)
}

func readByte(reader io.Reader) (b byte, err error) {
	buffer := make([]byte, 1)
	_, err = io.ReadFull(reader, buffer)
	if err != nil {
		return 0, err
	}
	return buffer[0], nil
}
