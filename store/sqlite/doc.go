// Package sqlite provides a SQLite-backed design cache.
//
// The cache is a single key/value table, suitable for CLI tools and desktop
// applications that want designs to survive restarts without running a
// database server.
//
//	cache, err := sqlite.NewSqliteCache(sqlite.SqliteOptions{
//		Path: "./designs.db",
//	})
//	if err != nil {
//		return err
//	}
//	defer cache.Close()
//
//	builder := design.NewBuilder(model, design.WithCache(cache))
//
// Use Path ":memory:" for a volatile database in tests.
package sqlite
