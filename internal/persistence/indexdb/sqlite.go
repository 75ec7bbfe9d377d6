// Package indexdb keeps a queryable sqlite history of the changes the
// relay accepted. The journal stays the source of truth; rows may be
// dropped when the writer falls behind.
package indexdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"voxeledit.ai/internal/protocol"
)

const (
	KindMap   = "map"
	KindActor = "actor"

	OpInsert = "insert"
	OpRemove = "remove"
)

// Change is one accepted MapChange or ActorChange. Box is set for map
// changes, ActorID for actor changes.
type Change struct {
	Tick            uint64
	HistoryClientID protocol.ClientID
	Kind            string
	Op              string
	Box             protocol.Box
	Tile            uint16
	ActorID         string
	RawJSON         []byte
	RecordedAt      time.Time
}

type Stats struct {
	QueueDepth    int
	QueueCapacity int
	DropTotal     uint64
	WriteTotal    uint64
	FailTotal     uint64
}

type SQLiteIndex struct {
	db *sql.DB

	ch   chan Change
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropTotal  atomic.Uint64
	writeTotal atomic.Uint64
	failTotal  atomic.Uint64

	commitEvery   int
	commitMaxWait time.Duration
}

func OpenSQLite(path string, queue int) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if queue <= 0 {
		queue = 4096
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("indexdb pragmas: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("indexdb schema: %w", err)
	}

	s := &SQLiteIndex{
		db:            db,
		ch:            make(chan Change, queue),
		commitEvery:   500,
		commitMaxWait: time.Second,
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1');`,
		`CREATE TABLE IF NOT EXISTS changes (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			tick INTEGER NOT NULL,
			history_client_id INTEGER NOT NULL,
			kind TEXT NOT NULL,
			op TEXT NOT NULL,
			cx INTEGER, cy INTEGER, cz INTEGER,
			dx INTEGER, dy INTEGER, dz INTEGER,
			tile INTEGER,
			actor_id TEXT,
			raw_json TEXT NOT NULL,
			recorded_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_changes_client_seq ON changes(history_client_id, seq);`,
		`CREATE INDEX IF NOT EXISTS idx_changes_actor ON changes(actor_id);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// Record queues c for the writer. It never blocks; a full queue drops c.
func (s *SQLiteIndex) Record(c Change) {
	if s == nil || s.closed.Load() {
		return
	}
	if c.RecordedAt.IsZero() {
		c.RecordedAt = time.Now()
	}
	select {
	case s.ch <- c:
	default:
		s.dropTotal.Add(1)
	}
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:    len(s.ch),
		QueueCapacity: cap(s.ch),
		DropTotal:     s.dropTotal.Load(),
		WriteTotal:    s.writeTotal.Load(),
		FailTotal:     s.failTotal.Load(),
	}
}

// ChangesByClient returns the recorded changes of one history client in
// the order the relay accepted them. Rows still queued are not visible.
func (s *SQLiteIndex) ChangesByClient(ctx context.Context, id protocol.ClientID) ([]Change, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT tick,history_client_id,kind,op,
		IFNULL(cx,0),IFNULL(cy,0),IFNULL(cz,0),IFNULL(dx,0),IFNULL(dy,0),IFNULL(dz,0),
		IFNULL(tile,0),IFNULL(actor_id,''),raw_json,recorded_at
		FROM changes WHERE history_client_id=? ORDER BY seq`, int64(id))
	if err != nil {
		return nil, fmt.Errorf("indexdb query: %w", err)
	}
	defer rows.Close()

	var out []Change
	for rows.Next() {
		var (
			c        Change
			tick     int64
			client   int64
			tile     int64
			raw      string
			recorded string
		)
		if err := rows.Scan(&tick, &client, &c.Kind, &c.Op,
			&c.Box.Center[0], &c.Box.Center[1], &c.Box.Center[2],
			&c.Box.Dimensions[0], &c.Box.Dimensions[1], &c.Box.Dimensions[2],
			&tile, &c.ActorID, &raw, &recorded); err != nil {
			return nil, fmt.Errorf("indexdb scan: %w", err)
		}
		c.Tick = uint64(tick)
		c.HistoryClientID = protocol.ClientID(client)
		c.Tile = uint16(tile)
		c.RawJSON = []byte(raw)
		c.RecordedAt, _ = time.Parse(time.RFC3339Nano, recorded)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insert, err := s.db.Prepare(`INSERT INTO changes(tick,history_client_id,kind,op,cx,cy,cz,dx,dy,dz,tile,actor_id,raw_json,recorded_at)
		VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		for range s.ch {
			s.failTotal.Add(1)
		}
		return
	}
	defer insert.Close()

	var (
		tx         *sql.Tx
		opCount    int
		lastCommit = time.Now()
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		if err := tx.Commit(); err != nil {
			s.failTotal.Add(uint64(opCount))
		} else {
			s.writeTotal.Add(uint64(opCount))
		}
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	for c := range s.ch {
		begin()
		if tx == nil {
			s.failTotal.Add(1)
			continue
		}
		if _, err := tx.Stmt(insert).Exec(changeArgs(c)...); err != nil {
			s.failTotal.Add(1)
			continue
		}
		opCount++
		// Commit whenever the queue drains so readers see settled history.
		if opCount >= s.commitEvery || time.Since(lastCommit) >= s.commitMaxWait || len(s.ch) == 0 {
			commit()
		}
	}
	commit()
}

func changeArgs(c Change) []any {
	var box [6]any
	var tile, actor any
	if c.Kind == KindMap {
		for i := 0; i < 3; i++ {
			box[i] = c.Box.Center[i]
			box[3+i] = c.Box.Dimensions[i]
		}
		if c.Op == OpInsert {
			tile = int64(c.Tile)
		}
	} else {
		actor = c.ActorID
	}
	return []any{
		int64(c.Tick), int64(c.HistoryClientID), c.Kind, c.Op,
		box[0], box[1], box[2], box[3], box[4], box[5],
		tile, actor, string(c.RawJSON),
		c.RecordedAt.UTC().Format(time.RFC3339Nano),
	}
}
