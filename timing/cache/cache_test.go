package cache_test

import (
	"github.com/sarchlab/akita/v4/sim"
	gomock "go.uber.org/mock/gomock"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachesim/timing/cache"
)

type recordingHook struct {
	ctxs []sim.HookCtx
}

func (h *recordingHook) Func(ctx sim.HookCtx) {
	h.ctxs = append(h.ctxs, ctx)
}

func (h *recordingHook) positions() []string {
	names := make([]string, 0, len(h.ctxs))
	for _, ctx := range h.ctxs {
		names = append(names, ctx.Pos.Name)
	}
	return names
}

func newCache(config cache.Config, backing cache.BackingStore) *cache.Cache {
	c, err := cache.New(config, backing)
	Expect(err).NotTo(HaveOccurred())
	return c
}

var _ = Describe("Cache", func() {
	var (
		c      *cache.Cache
		memory *cache.Memory
		at     func(raw uint32) cache.Address
	)

	BeforeEach(func() {
		memory = cache.NewMemory(128, 64)
		// Small cache for testing: 4KB, 4-way, 64B lines -> 16 sets
		c = newCache(cache.Config{
			Size:          4 * 1024,
			Associativity: 4,
			BlockSize:     64,
			Policy:        cache.PolicyLRU,
		}, memory)
		at = c.Decoder().Decode
	})

	Describe("construction", func() {
		It("should derive the geometry", func() {
			Expect(c.NumSets()).To(Equal(16))
			Expect(c.Ways()).To(Equal(4))
			Expect(c.Config().NumBlocks()).To(Equal(64))
		})

		It("should reject an associativity that does not divide the blocks", func() {
			_, err := cache.New(cache.Config{
				Size: 4096, BlockSize: 64, Associativity: 3, Policy: cache.PolicyLRU,
			}, memory)
			Expect(err).To(MatchError(cache.ErrConfiguration))
		})

		It("should reject a cache smaller than a block", func() {
			_, err := cache.New(cache.Config{
				Size: 32, BlockSize: 64, Associativity: 1, Policy: cache.PolicyLRU,
			}, memory)
			Expect(err).To(MatchError(cache.ErrConfiguration))
		})

		It("should reject blocks smaller than a word", func() {
			_, err := cache.New(cache.Config{
				Size: 64, BlockSize: 4, Associativity: 1, Policy: cache.PolicyLRU,
			}, memory)
			Expect(err).To(MatchError(cache.ErrConfiguration))
		})

		It("should reject an unknown policy", func() {
			_, err := cache.New(cache.Config{
				Size: 4096, BlockSize: 64, Associativity: 4, Policy: "MRU",
			}, memory)
			Expect(err).To(MatchError(cache.ErrConfiguration))
		})

		It("should require a backing store", func() {
			_, err := cache.New(cache.DefaultConfig(), nil)
			Expect(err).To(MatchError(cache.ErrConfiguration))
		})

		It("should accept policy names in any case", func() {
			cfg := cache.DefaultConfig()
			cfg.Policy = "fifo"
			fifo := newCache(cfg, memory)
			Expect(fifo.Config().Policy).To(Equal(cache.PolicyFIFO))
		})
	})

	Describe("Read operations", func() {
		It("should fail on a never written address", func() {
			_, err := c.GetVal(at(0x1000))
			Expect(err).To(MatchError(cache.ErrUninitializedRead))

			stats := c.Stats()
			Expect(stats.ReadMisses).To(Equal(uint64(1)))
			Expect(c.Probe(at(0x1000))).To(BeFalse())
		})

		It("should miss on cold cache and fill from memory", func() {
			addr := at(0x1000)
			b := cache.NewBlock(8)
			b.Set(addr.Word(), 0xBEEF, addr.Tag)
			memory.SetBlock(addr, b)

			v, err := c.GetVal(addr)
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(float64(0xBEEF)))

			stats := c.Stats()
			Expect(stats.Reads()).To(Equal(uint64(1)))
			Expect(stats.ReadMisses).To(Equal(uint64(1)))
			Expect(stats.ReadHits).To(Equal(uint64(0)))
			Expect(c.Probe(addr)).To(BeTrue())
		})

		It("should hit on cached data", func() {
			c.SetVal(at(0x1000), 7)

			v, err := c.GetVal(at(0x1000))
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(7.0))

			stats := c.Stats()
			Expect(stats.ReadHits).To(Equal(uint64(1)))
			Expect(stats.ReadMisses).To(Equal(uint64(0)))
		})

		It("should hit on different addresses in same cache line", func() {
			c.SetVal(at(0x1000), 1)
			c.SetVal(at(0x1008), 2)

			v, err := c.GetVal(at(0x1008))
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(2.0))
			Expect(c.Stats().ReadHits).To(Equal(uint64(1)))
		})

		It("should fail on an unwritten word of a cached block", func() {
			c.SetVal(at(0x1000), 1)

			_, err := c.GetVal(at(0x1010))
			Expect(err).To(MatchError(cache.ErrUninitializedRead))
			Expect(c.Stats().ReadHits).To(Equal(uint64(1)))
		})
	})

	Describe("Write operations", func() {
		It("should write-allocate on miss", func() {
			c.SetVal(at(0x1000), 12)
			Expect(c.Stats().WriteMisses).To(Equal(uint64(1)))
			Expect(c.Probe(at(0x1000))).To(BeTrue())
		})

		It("should hit on cached data", func() {
			c.SetVal(at(0x1000), 11)
			c.SetVal(at(0x1000), 22)

			stats := c.Stats()
			Expect(stats.WriteHits).To(Equal(uint64(1)))
			Expect(stats.WriteMisses).To(Equal(uint64(1)))

			v, err := c.GetVal(at(0x1000))
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(22.0))
		})

		It("should write through to memory on hit and on miss", func() {
			c.SetVal(at(0x1000), 1)
			c.SetVal(at(0x1008), 2)

			b, ok := memory.GetBlock(at(0x1000))
			Expect(ok).To(BeTrue())
			v, _ := b.Get(0)
			Expect(v).To(Equal(1.0))
			v, _ = b.Get(1)
			Expect(v).To(Equal(2.0))
		})

		It("should merge into a block already in memory", func() {
			c.SetVal(at(0x1000), 1)
			c.Reset()

			c.SetVal(at(0x1008), 2)
			Expect(c.Stats().WriteMisses).To(Equal(uint64(1)))

			v, err := c.GetVal(at(0x1000))
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(1.0))
		})

		It("should let a cold cache over the same memory read every write", func() {
			for i := uint32(0); i < 64; i++ {
				c.SetVal(at(i*0x400), float64(i))
			}

			cold := newCache(c.Config(), memory)
			for i := uint32(0); i < 64; i++ {
				v, err := cold.GetVal(cold.Decoder().Decode(i * 0x400))
				Expect(err).NotTo(HaveOccurred())
				Expect(v).To(Equal(float64(i)))
			}
			Expect(cold.Stats().ReadMisses).To(Equal(uint64(64)))
		})
	})

	Describe("Eviction", func() {
		It("should evict when a set is full", func() {
			// Set 0 addresses: 0x0000, 0x0400, 0x0800, 0x0C00, 0x1000
			c.SetVal(at(0x0000), 1)
			c.SetVal(at(0x0400), 2)
			c.SetVal(at(0x0800), 3)
			c.SetVal(at(0x0C00), 4)
			Expect(c.Stats().Evictions).To(Equal(uint64(0)))

			c.SetVal(at(0x1000), 5)
			Expect(c.Stats().Evictions).To(Equal(uint64(1)))
			Expect(c.Probe(at(0x0000))).To(BeFalse())
			Expect(c.Probe(at(0x1000))).To(BeTrue())
		})

		It("should evict the least recently used block", func() {
			c.SetVal(at(0x0000), 1)
			c.SetVal(at(0x0400), 2)
			c.SetVal(at(0x0800), 3)
			c.SetVal(at(0x0C00), 4)

			// Touch the first three to make 0x0C00 the LRU
			_, _ = c.GetVal(at(0x0000))
			_, _ = c.GetVal(at(0x0400))
			_, _ = c.GetVal(at(0x0800))

			c.SetVal(at(0x1000), 5)
			Expect(c.Probe(at(0x0C00))).To(BeFalse())
			Expect(c.Probe(at(0x0000))).To(BeTrue())

			// The evicted value is still in memory
			v, err := c.GetVal(at(0x0C00))
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(4.0))
		})

		It("should keep slots valid and tags unique within a set", func() {
			for i := uint32(0); i < 40; i++ {
				c.SetVal(at((i%9)*0x400), float64(i))
			}

			seen := map[uint32]bool{}
			for way := 0; way < c.Ways(); way++ {
				slot := c.Slot(0, way)
				Expect(slot.Valid).To(BeTrue())
				Expect(seen[slot.Tag]).To(BeFalse())
				seen[slot.Tag] = true
			}
		})
	})

	Describe("two-way set replacement", func() {
		// 128B, 64B blocks, 2-way: a single set of two ways.
		var a, b, cc cache.Address

		build := func(policy cache.Policy) *cache.Cache {
			two := newCache(cache.Config{
				Size: 128, BlockSize: 64, Associativity: 2, Policy: policy,
			}, cache.NewMemory(4, 64))
			a = two.Decoder().Decode(0x000)
			b = two.Decoder().Decode(0x040)
			cc = two.Decoder().Decode(0x080)
			return two
		}

		access := func(two *cache.Cache) {
			two.SetVal(a, 1)
			two.SetVal(b, 2)
			_, err := two.GetVal(a)
			Expect(err).NotTo(HaveOccurred())
			two.SetVal(cc, 3)
		}

		It("should evict B under LRU", func() {
			two := build(cache.PolicyLRU)
			access(two)

			Expect(two.Probe(a)).To(BeTrue())
			Expect(two.Probe(b)).To(BeFalse())

			before := two.Stats()
			_, err := two.GetVal(a)
			Expect(err).NotTo(HaveOccurred())
			_, err = two.GetVal(b)
			Expect(err).NotTo(HaveOccurred())
			after := two.Stats()
			Expect(after.ReadHits - before.ReadHits).To(Equal(uint64(1)))
			Expect(after.ReadMisses - before.ReadMisses).To(Equal(uint64(1)))
		})

		It("should evict A under FIFO despite the re-access", func() {
			two := build(cache.PolicyFIFO)
			access(two)

			Expect(two.Probe(a)).To(BeFalse())
			Expect(two.Probe(b)).To(BeTrue())
			Expect(two.Probe(cc)).To(BeTrue())
		})

		It("should reset both ticks of the overwritten way", func() {
			two := build(cache.PolicyFIFO)
			access(two)

			slot := two.Slot(0, 0)
			Expect(slot.Tag).To(Equal(cc.Tag))
			Expect(slot.InsertedAt).To(Equal(two.Tick()))
			Expect(slot.AccessedAt).To(Equal(two.Tick()))
		})

		It("should replay the same evictions for the same random seed", func() {
			run := func() []bool {
				two := build(cache.PolicyRandom)
				var present []bool
				for i := uint32(0); i < 20; i++ {
					two.SetVal(two.Decoder().Decode((i%5)*0x40), float64(i))
					present = append(present, two.Probe(a))
				}
				return present
			}
			Expect(run()).To(Equal(run()))
		})
	})

	Describe("direct mapped", func() {
		It("should always evict the previous tag at the same index", func() {
			for _, policy := range cache.Policies() {
				dm := newCache(cache.Config{
					Size: 1024, BlockSize: 64, Associativity: 1, Policy: policy,
				}, cache.NewMemory(64, 64))
				first := dm.Decoder().Decode(0x0040)
				second := dm.Decoder().Decode(0x0440)
				Expect(first.Index).To(Equal(second.Index))

				dm.SetVal(first, 1)
				dm.SetVal(second, 2)
				Expect(dm.Probe(first)).To(BeFalse(), string(policy))
				Expect(dm.Probe(second)).To(BeTrue(), string(policy))
				Expect(dm.Stats().Evictions).To(Equal(uint64(1)))
			}
		})
	})

	Describe("accounting", func() {
		It("should count exactly the known hits", func() {
			// 8 words in one block, then 8 blocks in distinct sets
			for i := uint32(0); i < 8; i++ {
				c.SetVal(at(i*8), float64(i))
			}
			for i := uint32(1); i <= 8; i++ {
				c.SetVal(at(i*0x40), float64(i))
			}
			stats := c.Stats()
			Expect(stats.WriteHits).To(Equal(uint64(7)))
			Expect(stats.Writes()).To(Equal(uint64(16)))

			c.Reset()
			k, h := 0, 0
			for i := uint32(0); i < 8; i++ {
				_, err := c.GetVal(at(i * 8))
				Expect(err).NotTo(HaveOccurred())
				k++
				if i > 0 {
					h++
				}
			}
			stats = c.Stats()
			Expect(stats.ReadHits).To(Equal(uint64(h)))
			Expect(stats.Reads()).To(Equal(uint64(k)))
		})

		It("should guard miss rates against zero accesses", func() {
			_, ok := c.Stats().ReadMissRate()
			Expect(ok).To(BeFalse())
			_, ok = c.Stats().WriteMissRate()
			Expect(ok).To(BeFalse())

			c.SetVal(at(0), 1)
			c.SetVal(at(8), 1)
			rate, ok := c.Stats().WriteMissRate()
			Expect(ok).To(BeTrue())
			Expect(rate).To(Equal(0.5))
		})

		It("should clear everything on reset", func() {
			c.SetVal(at(0), 1)
			c.Reset()

			Expect(c.Stats()).To(Equal(cache.Statistics{}))
			Expect(c.Tick()).To(Equal(uint64(0)))
			Expect(c.Probe(at(0))).To(BeFalse())
		})

		It("should fill from way 0 again after reset", func() {
			for i := uint32(0); i < 6; i++ {
				c.SetVal(at(i*0x400), float64(i))
			}
			c.Reset()

			c.SetVal(at(0x1400), 1)
			Expect(c.Slot(0, 0).Valid).To(BeTrue())
			Expect(c.Slot(0, 0).Tag).To(Equal(at(0x1400).Tag))
			for way := 1; way < c.Ways(); way++ {
				Expect(c.Slot(0, way).Valid).To(BeFalse())
			}
		})
	})

	Describe("high addresses", func() {
		It("should store and load at the top of the address space", func() {
			top := at(0xFFFFFFF8)
			c.SetVal(top, 9)
			c.SetVal(at(0x10000000), 4)

			set, way := int(top.Index), -1
			for w := 0; w < c.Ways(); w++ {
				if s := c.Slot(set, w); s.Valid && s.Tag == top.Tag {
					way = w
				}
			}
			Expect(way).To(BeNumerically(">=", 0))

			c.Reset()
			v, err := c.GetVal(top)
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(9.0))
			v, err = c.GetVal(at(0x10000000))
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(4.0))
			Expect(memory.NumBlocks()).To(Equal(128))
		})
	})

	Describe("hooks", func() {
		It("should report every access", func() {
			two := newCache(cache.Config{
				Size: 128, BlockSize: 64, Associativity: 2, Policy: cache.PolicyLRU,
			}, cache.NewMemory(4, 64))
			hook := &recordingHook{}
			two.AcceptHook(hook)

			d := two.Decoder()
			two.SetVal(d.Decode(0x00), 1)
			two.SetVal(d.Decode(0x08), 2)
			_, _ = two.GetVal(d.Decode(0x00))
			two.SetVal(d.Decode(0x40), 3)
			two.SetVal(d.Decode(0x80), 4)
			_, _ = two.GetVal(d.Decode(0xC0))

			Expect(hook.positions()).To(Equal([]string{
				"CacheWriteMiss",
				"CacheWriteHit",
				"CacheReadHit",
				"CacheWriteMiss",
				"CacheEvict",
				"CacheWriteMiss",
				"CacheReadMiss",
			}))

			evict := hook.ctxs[4]
			Expect(evict.Domain).To(BeIdenticalTo(two))
			Expect(evict.Item).To(Equal(d.Decode(0x80)))
			detail := evict.Detail.(cache.AccessDetail)
			// 0x00 was last touched before 0x40 was installed
			Expect(detail.EvictedTag).To(Equal(d.Decode(0x00).Tag))
			Expect(detail.Way).To(Equal(0))

			miss := hook.ctxs[6].Detail.(cache.AccessDetail)
			Expect(miss.Way).To(Equal(-1))
		})
	})

	Describe("backing store interaction", func() {
		var (
			mockCtrl *gomock.Controller
			backing  *MockBackingStore
		)

		BeforeEach(func() {
			mockCtrl = gomock.NewController(GinkgoT())
			backing = NewMockBackingStore(mockCtrl)
			c = newCache(cache.Config{
				Size: 4096, BlockSize: 64, Associativity: 4, Policy: cache.PolicyLRU,
			}, backing)
			at = c.Decoder().Decode
		})

		AfterEach(func() {
			mockCtrl.Finish()
		})

		It("should fabricate a block when memory has none", func() {
			addr := at(0x2000)
			backing.EXPECT().GetBlock(addr).Return(nil, false)
			backing.EXPECT().SetBlock(addr, gomock.Any()).
				Do(func(_ cache.Address, b *cache.Block) {
					v, ok := b.Get(addr.Word())
					Expect(ok).To(BeTrue())
					Expect(v).To(Equal(5.0))
				})

			c.SetVal(addr, 5)
		})

		It("should write through on a hit without fetching", func() {
			addr := at(0x2000)
			backing.EXPECT().GetBlock(addr).Return(nil, false).Times(1)
			backing.EXPECT().SetBlock(addr, gomock.Any()).Times(2)

			c.SetVal(addr, 5)
			c.SetVal(addr, 6)
		})

		It("should not install anything on an uninitialized read", func() {
			addr := at(0x2000)
			backing.EXPECT().GetBlock(addr).Return(nil, false).Times(2)

			_, err := c.GetVal(addr)
			Expect(err).To(MatchError(cache.ErrUninitializedRead))
			_, err = c.GetVal(addr)
			Expect(err).To(MatchError(cache.ErrUninitializedRead))
			Expect(c.Stats().ReadMisses).To(Equal(uint64(2)))
		})

		It("should not share the fetched block with memory", func() {
			addr := at(0x2000)
			stored := cache.NewBlock(8)
			stored.Set(0, 1, addr.Tag)
			backing.EXPECT().GetBlock(addr).Return(stored.Clone(), true)
			backing.EXPECT().SetBlock(addr, gomock.Any())

			_, err := c.GetVal(addr)
			Expect(err).NotTo(HaveOccurred())
			c.SetVal(addr, 9)

			v, _ := stored.Get(0)
			Expect(v).To(Equal(1.0))
		})
	})
})
