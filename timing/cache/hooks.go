package cache

import (
	"github.com/sarchlab/akita/v4/sim"
)

// Hook positions at which a Cache invokes its hooks. HookCtx.Item is always
// the accessed Address and HookCtx.Detail an AccessDetail.
var (
	HookPosReadHit   = &sim.HookPos{Name: "CacheReadHit"}
	HookPosReadMiss  = &sim.HookPos{Name: "CacheReadMiss"}
	HookPosWriteHit  = &sim.HookPos{Name: "CacheWriteHit"}
	HookPosWriteMiss = &sim.HookPos{Name: "CacheWriteMiss"}
	HookPosEvict     = &sim.HookPos{Name: "CacheEvict"}
)

// AccessDetail describes where an access landed.
type AccessDetail struct {
	// Tick is the logical time of the access.
	Tick uint64
	// Set is the set the address maps to.
	Set int
	// Way is the way that served or received the block, -1 if none did.
	Way int
	// EvictedTag is the tag that was overwritten. Only set for
	// HookPosEvict.
	EvictedTag uint32
}

func (c *Cache) invokeHook(pos *sim.HookPos, addr Address, detail AccessDetail) {
	if len(c.Hooks) == 0 {
		return
	}

	c.InvokeHook(sim.HookCtx{
		Domain: c,
		Pos:    pos,
		Item:   addr,
		Detail: detail,
	})
}
