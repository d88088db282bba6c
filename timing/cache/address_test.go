package cache_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachesim/timing/cache"
)

var _ = Describe("Address", func() {
	Describe("field widths", func() {
		It("should use log2(blocks) index bits when direct mapped", func() {
			// 32 blocks, 1 way each -> 32 sets
			d, err := cache.NewDecoder(64, 32, 32)
			Expect(err).NotTo(HaveOccurred())
			Expect(d.OffsetBits()).To(Equal(uint(6)))
			Expect(d.IndexBits()).To(Equal(uint(5)))
			Expect(d.TagBits()).To(Equal(uint(21)))
		})

		It("should use no index bits when fully associative", func() {
			d, err := cache.NewDecoder(64, 32, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(d.IndexBits()).To(Equal(uint(0)))
			Expect(d.TagBits()).To(Equal(uint(26)))
		})

		It("should use log2(sets) index bits when set associative", func() {
			// 2048B / 64B = 32 blocks, 2-way -> 16 sets
			d, err := cache.NewDecoder(64, 32, 16)
			Expect(err).NotTo(HaveOccurred())
			Expect(d.IndexBits()).To(Equal(uint(4)))
			Expect(d.TagBits()).To(Equal(uint(22)))
		})
	})

	Describe("partition", func() {
		geometries := [][3]int{
			{8, 1, 1},
			{64, 32, 32},
			{64, 32, 16},
			{64, 32, 1},
			{128, 1024, 256},
			{4096, 1 << 20, 1 << 20},
		}
		raws := []uint32{0, 1, 0x3F, 0x40, 0x1234_5678, 0xDEAD_BEEF, 0xFFFF_FFFF}

		It("should cover all 32 bits and reconstruct every address", func() {
			for _, g := range geometries {
				d, err := cache.NewDecoder(g[0], g[1], g[2])
				Expect(err).NotTo(HaveOccurred())
				Expect(d.OffsetBits() + d.IndexBits() + d.TagBits()).To(Equal(uint(32)))

				for _, raw := range raws {
					addr := d.Decode(raw)
					Expect(addr.Raw()).To(Equal(raw), "geometry %v address 0x%X", g, raw)
					Expect(uint64(addr.Offset)).To(BeNumerically("<", uint64(1)<<addr.OffsetBits))
					Expect(uint64(addr.Index)).To(BeNumerically("<", uint64(1)<<addr.IndexBits))
				}
			}
		})

		It("should split an address into tag, index and offset", func() {
			addr, err := cache.Decode(0x0000_1A48, 64, 32, 16)
			Expect(err).NotTo(HaveOccurred())
			// 0x1A48 = 0b1_1010_0100_1000
			Expect(addr.Offset).To(Equal(uint32(0x08)))
			Expect(addr.Index).To(Equal(uint32(0x9)))
			Expect(addr.Tag).To(Equal(uint32(0x6)))
			Expect(addr.Word()).To(Equal(1))
			Expect(addr.BlockNumber()).To(Equal(uint32(0x1A48 >> 6)))
		})
	})

	Describe("configuration errors", func() {
		It("should reject a block size that is not a power of two", func() {
			_, err := cache.NewDecoder(48, 32, 16)
			Expect(err).To(MatchError(cache.ErrConfiguration))
		})

		It("should reject a capacity that is not a power of two", func() {
			_, err := cache.NewDecoder(64, 24, 8)
			Expect(err).To(MatchError(cache.ErrConfiguration))
		})

		It("should reject zero sets", func() {
			_, err := cache.Decode(0, 64, 32, 0)
			Expect(err).To(MatchError(cache.ErrConfiguration))
		})

		It("should reject more sets than blocks", func() {
			_, err := cache.NewDecoder(64, 16, 32)
			Expect(err).To(MatchError(cache.ErrConfiguration))
		})

		It("should reject geometries wider than the address", func() {
			_, err := cache.NewDecoder(1<<20, 1<<14, 1<<14)
			Expect(err).To(MatchError(cache.ErrConfiguration))
		})
	})
})
