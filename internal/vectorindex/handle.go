package vectorindex

// Handle identifies one vector by its ordinal position in a specific index
// build. The generation half makes stale persisted positions detectable
// after the index is rebuilt from scratch.
type Handle struct {
	Pos uint32
	Gen uint32
}

// Int64 packs the handle for storage in a relational column.
func (h Handle) Int64() int64 {
	return int64(h.Gen)<<32 | int64(h.Pos)
}

// HandleFromInt64 unpacks a stored handle.
func HandleFromInt64(v int64) Handle {
	return Handle{
		Pos: uint32(v & 0xFFFFFFFF),
		Gen: uint32(uint64(v) >> 32),
	}
}
