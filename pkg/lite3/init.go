package lite3

// InitObj allocates a fresh, empty object node at the tail of the buffer
// and returns its offset. Called once to seed the document root, or any
// time a nested container needs its own root.
func InitObj(raw []byte, used *uint32, cfg Config) (uint32, error) {
	ofs, err := allocNode(raw, used, cfg)
	if err != nil {
		return 0, err
	}
	nodeAt(raw, ofs, cfg.KeyCount).setHeader(uint32(TagObject))
	return ofs, nil
}

// InitArr allocates a fresh, empty array node at the tail of the buffer and
// returns its offset.
func InitArr(raw []byte, used *uint32, cfg Config) (uint32, error) {
	ofs, err := allocNode(raw, used, cfg)
	if err != nil {
		return 0, err
	}
	nodeAt(raw, ofs, cfg.KeyCount).setHeader(uint32(TagArray))
	return ofs, nil
}
