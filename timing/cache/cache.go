// Package cache models a set-associative cache in front of a
// write-through backing store.
package cache

import (
	"fmt"

	akitacache "github.com/sarchlab/akita/v4/mem/cache"
	"github.com/sarchlab/akita/v4/sim"
)

// Slot is one way of one set.
type Slot struct {
	Valid bool
	Tag   uint32
	Block *Block
	// InsertedAt is the tick at which the current block was installed.
	InsertedAt uint64
	// AccessedAt is the tick of the most recent access to the block.
	AccessedAt uint64
}

// Statistics holds cache performance statistics.
type Statistics struct {
	ReadHits    uint64 `json:"read_hits"`
	ReadMisses  uint64 `json:"read_misses"`
	WriteHits   uint64 `json:"write_hits"`
	WriteMisses uint64 `json:"write_misses"`
	Evictions   uint64 `json:"evictions"`
}

// Reads returns the total number of reads.
func (s Statistics) Reads() uint64 {
	return s.ReadHits + s.ReadMisses
}

// Writes returns the total number of writes.
func (s Statistics) Writes() uint64 {
	return s.WriteHits + s.WriteMisses
}

// ReadMissRate returns the fraction of reads that missed. ok is false when
// there were no reads.
func (s Statistics) ReadMissRate() (rate float64, ok bool) {
	return ratio(s.ReadMisses, s.Reads())
}

// WriteMissRate returns the fraction of writes that missed. ok is false when
// there were no writes.
func (s Statistics) WriteMissRate() (rate float64, ok bool) {
	return ratio(s.WriteMisses, s.Writes())
}

func ratio(part, total uint64) (float64, bool) {
	if total == 0 {
		return 0, fals// Cache is a set-associative cache with write-through to a BackingStore.
// A Cache is owned by a single simulation run and is not safe for concurrent
// use.
type Cache struct {
	*sim.HookableBase

	config  Config
	decoder *Decoder

	ways    int
	numSets int

	// directory tracks tags and validity; it holds block-aligned addresses.
	directory *akitacache.DirectoryImpl
	// lines is indexed by setID*ways + wayID.
	lines []line

	backing BackingStore

	// clock ticks once per access. It orders insertions and accesses for
	// FIFO and LRU.
	clock uint64
	stats Statistics
}

// line holds what the directory does not: the data and the ticks.
type line struct {
	block      *Block
	insertedAt uint64
	accessedAt uint64
}

// New creates a new cache with the given configuration.
func New(config Config, backing BackingStore) (*Cache, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if backing == nil {
		return nil, fmt.Errorf("%w: no backing store", ErrConfiguration)
	}

	policy, _ := ParsePolicy(string(config.Policy))
	config.Policy = policy

	decoder, err := NewDecoder(config.BlockSize, config.NumBlocks(), config.NumSets())
	if err != nil {
		return nil, err
	}

	c := &Cache{
		HookableBase: sim.NewHookableBase(),
		config:       config,
		decoder:      decoder,
		ways:         config.Associativity,
		numSets:      config.NumSets(),
		lines:        make([]line, config.NumBlocks()),
		backing:      backing,
	}

	victimFinder, err := NewVictimFinder(policy, config.Seed, c.insertedAt)
	if err != nil {
		return nil, err
	}

	c.directory = akitacache.NewDirectory(
		c.numSets,
		c.ways,
		config.BlockSize,
		victimFinder,
	)

	return c, nil
}

// Config returns the cache configuration.
func (c *Cache) Config() Config {
	return c.config
}

// Decoder returns the address decoder matching the cache geometry.
func (c *Cache) Decoder() *Decoder {
	return c.decoder
}

// Backing returns the backing store.
func (c *Cache) Backing() BackingStore {
	return c.backing
}

// Stats returns cache statistics.
func (c *Cache) Stats() Statistics {
	return c.stats
}

// NumSets returns the number of sets.
func (c *Cache) NumSets() int {
	return c.numSets
}

// Ways returns the number of ways per set.
func (c *Cache) Ways() int {
	return c.ways
}

// Tick returns the current logical time.
func (c *Cache) Tick() uint64 {
	return c.clock
}

// Slot returns a snapshot of one way. The block is a copy.
func (c *Cache) Slot(set, way int) Slot {
	block := c.directory.GetSets()[set].Blocks[way]
	if !block.IsValid {
		return Slot{}
	}

	l := c.lines[c.blockIndex(block)]
	return Slot{
		Valid:      true,
		Tag:        c.tagOf(block),
		Block:      l.block.Clone(),
		InsertedAt: l.insertedAt,
		AccessedAt: l.accessedAt,
	}
}

// Reset invalidates every slot and clears the statistics and the clock. It
// is meant for reuse between runs, never in the middle of one.
func (c *Cache) Reset() {
	c.directory.Reset()
	for i := range c.lines {
		c.lines[i] = line{}
	}
	c.stats = Statistics{}
	c.clock = 0
}

// Probe reports whether addr is cached, without counting an access.
func (c *Cache) Probe(addr Address) bool {
	return c.lookup(addr) != nil
}

// GetVal reads the word at addr. On a miss the block is pulled from the
// backing store. If neither level holds a written word, the error wraps
// ErrUninitializedRead.
func (c *Cache) GetVal(addr Address) (float64, error) {
	c.clock++

	if block := c.lookup(addr); block != nil {
		c.stats.ReadHits++
		l := c.touch(block)
		c.invokeHook(HookPosReadHit, addr, AccessDetail{
			Tick: c.clock, Set: block.SetID, Way: block.WayID,
		})

		return wordOf(l.block, addr)
	}

	c.stats.ReadMisses++
	set := c.setOf(addr)

	data, ok := c.backing.GetBlock(addr)
	if !ok {
		c.invokeHook(HookPosReadMiss, addr, AccessDetail{Tick: c.clock, Set: set, Way: -1})
		return 0, fmt.Errorf("%w: %s", ErrUninitializedRead, addr)
	}

	way := c.install(addr, data)
	c.invokeHook(HookPosReadMiss, addr, AccessDetail{Tick: c.clock, Set: set, Way: way})

	return wordOf(data, addr)
}

// SetVal writes value at addr in the cache and in the backing store.
func (c *Cache) SetVal(addr Address, value float64) {
	c.clock++

	if block := c.lookup(addr); block != nil {
		c.stats.WriteHits++
		l := c.touch(block)
		l.block.Set(addr.Word(), value, addr.Tag)
		c.backing.SetBlock(addr, l.block)
		c.invokeHook(HookPosWriteHit, addr, AccessDetail{
			Tick: c.clock, Set: block.SetID, Way: block.WayID,
		})

		return
	}

	c.stats.WriteMisses++

	data, ok := c.backing.GetBlock(addr)
	if ok {
		if tag, tagged := data.Tag(); tagged && tag != addr.Tag {
			ok = false
		}
	}
	if !ok {
		data = NewBlock(c.config.BlockSize / WordSize)
	}
	data.Set(addr.Word(), value, addr.Tag)
	c.backing.SetBlock(addr, data)

	way := c.install(addr, data)
	c.invokeHook(HookPosWriteMiss, addr, AccessDetail{Tick: c.clock, Set: c.setOf(addr), Way: way})
}

// blockAddr is the block-aligned byte address the directory is keyed on.
// Its set in the directory is addr.Index.
func (c *Cache) blockAddr(addr Address) uint64 {
	return uint64(addr.BlockNumber()) * uint64(c.config.BlockSize)
}

func (c *Cache) setOf(addr Address) int {
	return int(addr.Index) % c.numSets
}

func (c *Cache) blockIndex(block *akitacache.Block) int {
	return block.SetID*c.ways + block.WayID
}

// tagOf recovers the address tag of a directory block.
func (c *Cache) tagOf(block *akitacache.Block) uint32 {
	return uint32(block.Tag/uint64(c.config.BlockSize)) >> c.decoder.IndexBits()
}

func (c *Cache) insertedAt(block *akitacache.Block) uint64 {
	return c.lines[c.blockIndex(block)].insertedAt
}

// lookup returns the directory block holding addr, or nil on a miss.
func (c *Cache) lookup(addr Address) *akitacache.Block {
	block := c.directory.Lookup(0, c.blockAddr(addr))
	if block == nil || !block.IsValid {
		return nil
	}
	return block
}

// touch records an access to a cached block.
func (c *Cache) touch(block *akitacache.Block) *line {
	c.directory.Visit(block)
	l := &c.lines[c.blockIndex(block)]
	l.accessedAt = c.clock
	return l
}

// install places data in addr's set, taking ownership of it. The first
// invalid way is used; if the set is full the victim finder picks a way to
// overwrite.
func (c *Cache) install(addr Address, data *Block) int {
	blockAddr := c.blockAddr(addr)
	set := c.directory.GetSets()[c.setOf(addr)]

	var victim *akitacache.Block
	for _, block := range set.Blocks {
		if !block.IsValid {
			victim = block
			break
		}
	}

	if victim == nil {
		victim = c.directory.FindVictim(blockAddr)
		c.stats.Evictions++
		c.invokeHook(HookPosEvict, addr, AccessDetail{
			Tick:       c.clock,
			Set:        victim.SetID,
			Way:        victim.WayID,
			EvictedTag: c.tagOf(victim),
		})
	}

	victim.Tag = blockAddr
	victim.IsValid = true
	c.lines[c.blockIndex(victim)] = line{
		block:      data,
		insertedAt: c.clock,
		accessedAt: c.clock,
	}
	c.directory.Visit(victim)

	return victim.WayID
}

func wordOf(block *Block, addr Address) (float64, error) {
	v, ok := block.Get(addr.Word())
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUninitializedRead, addr)
	}
	return v, nil
}
