package library

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"rotation/classify"
)

// The metadata cache.
//
// One table, one row per photo file. This only exists so restarting does
// not re-open thousands of photos to read dimensions and EXIF dates all
// over again - losing the file entirely just costs one slow scan.

const cacheSchema = `
CREATE TABLE IF NOT EXISTS files (
	path TEXT NOT NULL PRIMARY KEY,
	size INTEGER NOT NULL,
	mtime INTEGER NOT NULL,
	width INTEGER NOT NULL,
	height INTEGER NOT NULL,
	taken INTEGER NOT NULL,
	category TEXT NOT NULL
)`

// func openCache {{{

func openCache(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?cache=shared&mode=rwc")
	if err != nil {
		return nil, err
	}

	// SQLite works better with fewer connections, and WAL keeps the scan
	// writes from blocking whatever else pokes at the file.
	db.SetMaxOpenConns(2)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.Exec(cacheSchema); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
} // }}}

// func Library.loadCache {{{

// Loads the whole cache into the files map at startup.
//
// Errors here are not fatal, the cache is an optimization - the scan
// re-examines anything missing.
func (li *Library) loadCache() {
	fl := li.l.With().Str("func", "loadCache").Logger()

	if li.db == nil {
		return
	}

	rows, err := li.db.Query("SELECT path, size, mtime, width, height, taken, category FROM files")
	if err != nil {
		fl.Err(err).Msg("query")
		return
	}

	defer rows.Close()

	loaded := 0

	for rows.Next() {
		fc := &fileCache{}

		var mtime, taken int64
		var cat string

		if err := rows.Scan(&fc.Path, &fc.Size, &mtime, &fc.Width, &fc.Height, &taken, &cat); err != nil {
			fl.Err(err).Msg("scan")
			return
		}

		fc.FileTS = time.Unix(mtime, 0)
		fc.Category = classify.Category(cat)

		if taken > 0 {
			fc.Taken = time.Unix(taken, 0)
		}

		li.files[fc.Path] = fc
		loaded++
	}

	if err := rows.Err(); err != nil {
		fl.Err(err).Msg("rows")
	}

	fl.Debug().Int("loaded", loaded).Send()
} // }}}

// func Library.saveFile {{{

func (li *Library) saveFile(fc *fileCache) {
	if li.db == nil {
		return
	}

	taken := int64(0)
	if !fc.Taken.IsZero() {
		taken = fc.Taken.Unix()
	}

	_, err := li.db.Exec(
		"INSERT OR REPLACE INTO files (path, size, mtime, width, height, taken, category) VALUES (?, ?, ?, ?, ?, ?, ?)",
		fc.Path, fc.Size, fc.FileTS.Unix(), fc.Width, fc.Height, taken, string(fc.Category))

	if err != nil {
		li.l.Err(err).Str("func", "saveFile").Str("path", fc.Path).Msg("exec")
	}
} // }}}

// func Library.removeFile {{{

func (li *Library) removeFile(path string) {
	if li.db == nil {
		return
	}

	if _, err := li.db.Exec("DELETE FROM files WHERE path = ?", path); err != nil {
		li.l.Err(err).Str("func", "removeFile").Str("path", path).Msg("exec")
	}
} // }}}
