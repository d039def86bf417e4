package cache

import (
	"path/filepath"
	"testing"
)

func benchCache(b *testing.B, backend string, compress bool) *TileCache {
	b.Helper()

	cfg := DefaultConfig()
	cfg.Compress = compress

	var store DiskStore
	var err error
	switch backend {
	case "filesystem":
		store, err = NewFilesystemStore(b.TempDir(), compress, nil)
	case "sqlite":
		store, err = NewSQLiteStore(filepath.Join(b.TempDir(), "tiles.db"), compress, nil)
	}
	if err != nil {
		b.Fatalf("store setup: %v", err)
	}

	c := New(cfg, store, nil, nil)
	b.Cleanup(func() { c.Close() })
	return c
}

func benchmarkPut(b *testing.B, backend string, compress bool) {
	c := benchCache(b, backend, compress)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Put(tileN(i%256), tileData(i%256))
	}
}

func benchmarkGet(b *testing.B, backend string, compress bool) {
	c := benchCache(b, backend, compress)
	for i := 0; i < 256; i++ {
		c.Put(tileN(i), tileData(i))
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Get(tileN(i % 256))
	}
}

func BenchmarkPutMemory(b *testing.B)           { benchmarkPut(b, "", false) }
func BenchmarkPutFilesystem(b *testing.B)       { benchmarkPut(b, "filesystem", false) }
func BenchmarkPutFilesystemGzip(b *testing.B)   { benchmarkPut(b, "filesystem", true) }
func BenchmarkPutSQLite(b *testing.B)           { benchmarkPut(b, "sqlite", false) }
func BenchmarkGetMemory(b *testing.B)           { benchmarkGet(b, "", false) }
func BenchmarkGetFilesystem(b *testing.B)       { benchmarkGet(b, "filesystem", false) }
func BenchmarkGetSQLite(b *testing.B)           { benchmarkGet(b, "sqlite", false) }

func BenchmarkGetParallel(b *testing.B) {
	c := benchCache(b, "", false)
	for i := 0; i < 256; i++ {
		c.Put(tileN(i), tileData(i))
	}
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			c.Get(tileN(i % 256))
			i++
		}
	})
}
