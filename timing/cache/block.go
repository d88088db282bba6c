package cache

// Block is a fixed number of words plus the tag that currently owns them.
// A word that was never written is absent; reading it yields
// ErrUninitializedRead instead of a zero.
type Block struct {
	data    []float64
	present []bool

	tag    uint32
	hasTag bool
}

// NewBlock creates a block of the given number of words, all absent.
func NewBlock(words int) *Block {
	return &Block{
		data:    make([]float64, words),
		present: make([]bool, words),
	}
}

// Len returns the number of words in the block.
func (b *Block) Len() int {
	return len(b.data)
}

// Get returns the word at loc and whether it has ever been written.
func (b *Block) Get(loc int) (float64, bool) {
	if loc < 0 || loc >= len(b.data) || !b.present[loc] {
		return 0, false
	}
	return b.data[loc], true
}

// Set writes val at loc and records tag as the block's owner.
func (b *Block) Set(loc int, val float64, tag uint32) {
	b.data[loc] = val
	b.present[loc] = true
	b.tag = tag
	b.hasTag = true
}

// Tag returns the owning tag, if any word was ever written.
func (b *Block) Tag() (uint32, bool) {
	return b.tag, b.hasTag
}

// Clone returns a deep copy. Blocks never share storage across the cache
// and the backing store.
func (b *Block) Clone() *Block {
	if b == nil {
		return nil
	}

	c := &Block{
		data:    make([]float64, len(b.data)),
		present: make([]bool, len(b.present)),
		tag:     b.tag,
		hasTag:  b.hasTag,
	}
	copy(c.data, b.data)
	copy(c.present, b.present)

	return c
}
