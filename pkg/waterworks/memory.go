package waterworks

import "github.com/Adi0604/Water-Works/internal/adapters/memsource"

// MemorySource is a DataSource callers fill with rows themselves, for demos,
// tests or bridging data the built-in sources cannot read.
type MemorySource = memsource.MemSource

// NewMemorySource returns an empty in-memory source.
func NewMemorySource(name string) *MemorySource {
	return memsource.New(name)
}
