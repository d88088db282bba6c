package cache

import (
	"fmt"
	"math/bits"
)

// AddressBits is the width of every simulated address.
const AddressBits = 32

// WordSize is the number of bytes in one stored word.
const WordSize = 8

// Address is a raw 32-bit address split into its tag, index, and offset
// bit-fields. The tag occupies the most significant bits and the offset the
// least significant ones.
type Address struct {
	Tag    uint32
	Index  uint32
	Offset uint32

	TagBits    uint
	IndexBits  uint
	OffsetBits uint
}

// BlockNumber returns tag‖index, the home of the block in the backing store.
func (a Address) BlockNumber() uint32 {
	if a.IndexBits == 0 {
		return a.Tag
	}
	return a.Tag<<a.IndexBits | a.Index
}

// Word returns the position of the addressed word within its block.
func (a Address) Word() int {
	return int(a.Offset / WordSize)
}

// Raw reassembles the original 32-bit address.
func (a Address) Raw() uint32 {
	raw := uint64(a.Tag)<<(a.IndexBits+a.OffsetBits) |
		uint64(a.Index)<<a.OffsetBits |
		uint64(a.Offset)
	return uint32(raw)
}

func (a Address) String() string {
	return fmt.Sprintf("0x%08X(tag=0x%X,index=%d,offset=%d)",
		a.Raw(), a.Tag, a.Index, a.Offset)
}

// Decoder splits raw addresses for one fixed cache geometry.
type Decoder struct {
	offsetBits uint
	indexBits  uint
	tagBits    uint
}

// NewDecoder validates a geometry and returns a decoder for it. blockSize is
// in bytes, capacityBlocks is the number of blocks the cache holds, and
// numSets is the number of sets those blocks are partitioned into.
func NewDecoder(blockSize, capacityBlocks, numSets int) (*Decoder, error) {
	if !isPowerOfTwo(blockSize) {
		return nil, fmt.Errorf("%w: block size %d is not a positive power of two",
			ErrConfiguration, blockSize)
	}
	if !isPowerOfTwo(capacityBlocks) {
		return nil, fmt.Errorf("%w: capacity of %d blocks is not a positive power of two",
			ErrConfiguration, capacityBlocks)
	}
	if !isPowerOfTwo(numSets) {
		return nil, fmt.Errorf("%w: %d sets is not a positive power of two",
			ErrConfiguration, numSets)
	}
	if capacityBlocks%numSets != 0 {
		return nil, fmt.Errorf("%w: %d sets do not divide %d blocks",
			ErrConfiguration, numSets, capacityBlocks)
	}

	offsetBits := log2(blockSize)
	indexBits := log2(numSets)
	if offsetBits+indexBits > AddressBits {
		return nil, fmt.Errorf("%w: %d offset bits and %d index bits exceed a %d-bit address",
			ErrConfiguration, offsetBits, indexBits, AddressBits)
	}

	return &Decoder{
		offsetBits: offsetBits,
		indexBits:  indexBits,
		tagBits:    AddressBits - offsetBits - indexBits,
	}, nil
}

// Decode is the one-shot form of NewDecoder followed by Decoder.Decode.
func Decode(raw uint32, blockSize, capacityBlocks, numSets int) (Address, error) {
	d, err := NewDecoder(blockSize, capacityBlocks, numSets)
	if err != nil {
		return Address{}, err
	}
	return d.Decode(raw), nil
}

// Decode splits raw into its bit-fields.
func (d *Decoder) Decode(raw uint32) Address {
	return Address{
		Tag:        uint32(uint64(raw) >> (d.offsetBits + d.indexBits)),
		Index:      (raw >> d.offsetBits) & mask(d.indexBits),
		Offset:     raw & mask(d.offsetBits),
		TagBits:    d.tagBits,
		IndexBits:  d.indexBits,
		OffsetBits: d.offsetBits,
	}
}

// OffsetBits returns the width of the offset field.
func (d *Decoder) OffsetBits() uint { return d.offsetBits }

// IndexBits returns the width of the index field.
func (d *Decoder) IndexBits() uint { return d.indexBits }

// TagBits returns the width of the tag field.
func (d *Decoder) TagBits() uint { return d.tagBits }

func isPowerOfTwo(v int) bool {
	return v > 0 && v&(v-1) == 0
}

func log2(v int) uint {
	return uint(bits.TrailingZeros64(uint64(v)))
}

// mask generates a mask of size ones at the least significant end.
func mask(size uint) uint32 {
	if size >= AddressBits {
		return ^uint32(0)
	}
	return uint32(1)<<size - 1
}
