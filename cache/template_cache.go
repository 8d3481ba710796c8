package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Konsultn-Engineering/queryfn/dialect"
	"github.com/Konsultn-Engineering/queryfn/utils"
)

const DefaultTemplateCacheSize = 512

// TemplateCache keeps keyed statements compiled per dialect so that building
// the same statement again skips the scan. Safe for concurrent use.
type TemplateCache struct {
	cache *lru.Cache[uint64, *dialect.Template]
}

func NewTemplateCache(size int) *TemplateCache {
	if size <= 0 {
		size = DefaultTemplateCacheSize
	}
	// lru.New only fails on a non-positive size
	c, _ := lru.New[uint64, *dialect.Template](size)
	return &TemplateCache{cache: c}
}

// GetOrCompile returns the cached template for (query, d) or compiles it.
func (c *TemplateCache) GetOrCompile(query string, d dialect.Dialect) (*dialect.Template, error) {
	key := utils.TemplateKey(query, d.Name())
	if tpl, ok := c.cache.Get(key); ok {
		return tpl, nil
	}

	tpl, err := dialect.Compile(query, d)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, tpl)
	return tpl, nil
}

func (c *TemplateCache) Len() int { return c.cache.Len() }

func (c *TemplateCache) Purge() { c.cache.Purge() }
