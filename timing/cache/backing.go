package cache

// BackingStore is the next level in the memory hierarchy. It is direct
// mapped by construction: every tag/index pair has exactly one home.
type BackingStore interface {
	// GetBlock returns a copy of the block homed at addr, if one was stored.
	GetBlock(addr Address) (*Block, bool)
	// SetBlock stores a copy of block at the home of addr.
	SetBlock(addr Address, block *Block)
}

type memorySlot struct {
	valid bool
	block *Block
}

// Memory is a flat array of blocks indexed by block number. It plays the
// role of RAM behind a Cache. Homes past the sized range live in a sparse
// overflow map, so a store to any 32-bit address costs one block.
type Memory struct {
	blockSize int
	slots     []memorySlot
	overflow  map[uint32]*Block
}

// NewMemory creates an empty memory of numBlocks blocks of blockSize bytes.
func NewMemory(numBlocks, blockSize int) *Memory {
	if numBlocks < 0 {
		numBlocks = 0
	}
	return &Memory{
		blockSize: blockSize,
		slots:     make([]memorySlot, numBlocks),
		overflow:  make(map[uint32]*Block),
	}
}

// GetBlock returns a copy of the block at addr.BlockNumber().
func (m *Memory) GetBlock(addr Address) (*Block, bool) {
	n := addr.BlockNumber()
	if uint64(n) >= uint64(len(m.slots)) {
		block, ok := m.overflow[n]
		if !ok {
			return nil, false
		}
		return block.Clone(), true
	}

	if !m.slots[n].valid {
		return nil, false
	}
	return m.slots[n].block.Clone(), true
}

// SetBlock stores a copy of block at addr.BlockNumber(). It always succeeds.
func (m *Memory) SetBlock(addr Address, block *Block) {
	n := addr.BlockNumber()
	if uint64(n) >= uint64(len(m.slots)) {
		m.overflow[n] = block.Clone()
		return
	}

	m.slots[n] = memorySlot{valid: true, block: block.Clone()}
}

// NumBlocks returns the number of block homes the memory was sized for.
func (m *Memory) NumBlocks() int {
	return len(m.slots)
}

// ValidBlocks returns how many homes hold a block, including those past the
// sized range.
func (m *Memory) ValidBlocks() int {
	n := len(m.overflow)
	for _, s := range m.slots {
		if s.valid {
			n++
		}
	}
	return n
}

// BlockSize returns the block size in bytes.
func (m *Memory) BlockSize() int {
	return m.blockSize
}
