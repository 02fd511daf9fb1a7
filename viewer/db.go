package main

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	_ "github.com/duckdb/duckdb-go/v2"
)

// DBCache maintains a cached in-memory DuckDB whose `turns` view globs the
// archive directories. The glob is re-evaluated per query, so new parquet
// files show up without a refresh; Refresh exists to rebuild the view after
// the directory set itself changes shape.
type DBCache struct {
	roots       []string
	refreshRate time.Duration
	logger      *log.Logger

	mu          sync.RWMutex
	db          *sql.DB
	lastRefresh time.Time
}

func NewDBCache(roots []string, refreshRate time.Duration, logger *log.Logger) *DBCache {
	return &DBCache{
		roots:       roots,
		refreshRate: refreshRate,
		logger:      logger,
	}
}

// Get returns the cached DB connection, refreshing if needed.
func (c *DBCache) Get() (*sql.DB, error) {
	c.mu.RLock()
	if c.db != nil && time.Since(c.lastRefresh) < c.refreshRate {
		db := c.db
		c.mu.RUnlock()
		return db, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring the write lock.
	if c.db != nil && time.Since(c.lastRefresh) < c.refreshRate {
		return c.db, nil
	}

	return c.refreshLocked()
}

// Refresh forces a rebuild of the cached DB connection.
func (c *DBCache) Refresh() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.refreshLocked()
	return err
}

func (c *DBCache) refreshLocked() (*sql.DB, error) {
	start := time.Now()

	newDB, err := openDuckDBWithGlobs(c.roots)
	if err != nil {
		return nil, err
	}

	if c.db != nil {
		_ = c.db.Close()
	}

	c.db = newDB
	c.lastRefresh = time.Now()
	c.logger.Debug("db refreshed", "elapsed", time.Since(start))
	return c.db, nil
}

func (c *DBCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db != nil {
		err := c.db.Close()
		c.db = nil
		return err
	}
	return nil
}

// openDuckDBWithGlobs creates a DuckDB connection with a `turns` view over
// every parquet file under the roots. Glob patterns keep startup cheap no
// matter how many shards exist.
func openDuckDBWithGlobs(roots []string) (*sql.DB, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, err
	}
	// Basic pragmas; ignore errors for compatibility across versions.
	_, _ = db.Exec("PRAGMA threads=4")
	// API responses must reflect on-disk changes.
	_, _ = db.Exec("PRAGMA enable_object_cache=false")

	globs := make([]string, 0, len(roots))
	for _, root := range roots {
		root = strings.TrimSpace(root)
		if root == "" {
			continue
		}
		glob := filepath.Join(root, "**", "*.parquet")
		globs = append(globs, "'"+escapeSQLString(glob)+"'")
	}

	if len(globs) == 0 {
		return db, createEmptyTurnsView(db)
	}

	// union_by_name tolerates schema drift between old and new shards; the
	// filename filter drops anything still sitting in a tmp dir.
	sqlText := `CREATE OR REPLACE VIEW turns AS
		SELECT * FROM read_parquet([` + strings.Join(globs, ",") + `], filename=true, union_by_name=true)
		WHERE NOT contains(filename, '/tmp/')`
	if _, err := db.Exec(sqlText); err != nil {
		// Globs with zero matches are an error in DuckDB, not an empty
		// result, and a fresh install has no archive yet.
		if verr := createEmptyTurnsView(db); verr != nil {
			_ = db.Close()
			return nil, verr
		}
	}
	return db, nil
}

func createEmptyTurnsView(db *sql.DB) error {
	_, err := db.Exec(`CREATE OR REPLACE VIEW turns AS
		SELECT * FROM (
			SELECT
				NULL::VARCHAR AS game_id,
				NULL::VARCHAR AS source,
				NULL::INTEGER AS turn,
				NULL::INTEGER AS width,
				NULL::INTEGER AS height,
				NULL::VARCHAR AS mode,
				NULL::INTEGER AS target_x,
				NULL::INTEGER AS target_y,
				NULL::VARCHAR AS outcome,
				NULL::INTEGER AS sunk_len,
				NULL::INTEGER[] AS ships,
				NULL::INTEGER[] AS hit_mem_x,
				NULL::INTEGER[] AS hit_mem_y,
				NULL::VARCHAR AS board,
				NULL::INTEGER AS shots_to_win,
				NULL::BIGINT AS created_ns,
				NULL::VARCHAR AS filename
		) WHERE 1=0`)
	return err
}

func escapeSQLString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func parseDataRoots(csv string) []string {
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	seen := make(map[string]bool, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// makeRelativeToRoots shortens an absolute shard path for display.
func makeRelativeToRoots(filename string, roots []string) string {
	fn := strings.TrimSpace(filename)
	if fn == "" {
		return ""
	}
	best := fn
	bestLen := len(best)
	for _, r := range roots {
		root := strings.TrimSpace(r)
		if root == "" {
			continue
		}
		rel, err := filepath.Rel(root, fn)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		cand := filepath.ToSlash(filepath.Join(root, rel))
		if len(cand) < bestLen {
			best = cand
			bestLen = len(cand)
		}
	}
	return best
}

func queryGamesTotal(ctx context.Context, db *sql.DB) (int64, error) {
	var total int64
	if err := db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT game_id) FROM turns`).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func queryGames(ctx context.Context, db *sql.DB, roots []string, limit, offset int) ([]GameSummary, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT
			game_id,
			MIN(created_ns)::BIGINT AS started_ns,
			MIN(source)::VARCHAR AS source,
			MIN(mode)::VARCHAR AS mode,
			MIN(width)::INTEGER AS width,
			MIN(height)::INTEGER AS height,
			COUNT(*)::INTEGER AS turns,
			MAX(shots_to_win)::INTEGER AS shots_to_win,
			MIN(filename)::VARCHAR AS file
		FROM turns
		GROUP BY game_id
		ORDER BY started_ns DESC, game_id DESC
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]GameSummary, 0, limit)
	for rows.Next() {
		var g GameSummary
		var file string
		if err := rows.Scan(&g.GameID, &g.StartedNs, &g.Source, &g.Mode, &g.Width, &g.Height, &g.Turns, &g.ShotsToWin, &file); err != nil {
			return nil, err
		}
		g.File = makeRelativeToRoots(file, roots)
		out = append(out, g)
	}
	return out, rows.Err()
}

func queryTurns(ctx context.Context, db *sql.DB, gameID string) ([]TurnDetail, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT game_id, turn::INTEGER, width::INTEGER, height::INTEGER, mode,
			target_x::INTEGER, target_y::INTEGER, outcome, sunk_len::INTEGER,
			ships, hit_mem_x, hit_mem_y, board, shots_to_win::INTEGER, source
		 FROM turns
		 WHERE game_id = ?
		 ORDER BY turn ASC`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	turns := make([]TurnDetail, 0, 64)
	for rows.Next() {
		var t TurnDetail
		var shipsAny, hitXAny, hitYAny any
		if err := rows.Scan(&t.GameID, &t.Turn, &t.Width, &t.Height, &t.Mode,
			&t.Target.X, &t.Target.Y, &t.Outcome, &t.SunkLen,
			&shipsAny, &hitXAny, &hitYAny, &t.Board, &t.ShotsToWin, &t.Source); err != nil {
			return nil, err
		}
		t.Ships = asInt32Slice(shipsAny)
		t.HitMem = zipCells(asInt32Slice(hitXAny), asInt32Slice(hitYAny))
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

func queryStats(ctx context.Context, db *sql.DB) ([]StatRow, error) {
	rows, err := db.QueryContext(ctx,
		`WITH games AS (
			SELECT
				game_id,
				MIN(source) AS source,
				MIN(mode) AS mode,
				MIN(width) AS width,
				MIN(height) AS height,
				MAX(shots_to_win) AS shots
			FROM turns
			GROUP BY game_id
		)
		SELECT
			source,
			mode,
			width::INTEGER,
			height::INTEGER,
			COUNT(*)::BIGINT AS games,
			MIN(shots)::INTEGER AS min_shots,
			AVG(shots)::DOUBLE AS mean_shots,
			MAX(shots)::INTEGER AS max_shots
		FROM games
		WHERE shots > 0
		GROUP BY source, mode, width, height
		ORDER BY source, mode, width, height`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]StatRow, 0, 16)
	for rows.Next() {
		var s StatRow
		if err := rows.Scan(&s.Source, &s.Mode, &s.Width, &s.Height, &s.Games, &s.MinShots, &s.MeanShots, &s.MaxShots); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
