// Package log persists the relay's message journal as zstd-compressed
// JSON lines.
package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"voxeledit.ai/internal/protocol"
)

const (
	journalPrefix = "journal"
	hourLayout    = "2006-01-02-15"
)

// Entry is one relayed message. Accepted is false for change requests the
// relay refused; Code carries the reason.
type Entry struct {
	Tick     uint64            `json:"tick"`
	Time     string            `json:"time"`
	ClientID protocol.ClientID `json:"client_id"`
	Type     string            `json:"type"`
	Accepted bool              `json:"accepted"`
	Code     string            `json:"code,omitempty"`
	Msg      json.RawMessage   `json:"msg"`
}

// Journal appends entries to hourly <dir>/journal-YYYY-MM-DD-HH.jsonl.zst
// files. Entries stay inside an open zstd frame until Checkpoint or Close
// ends it; a file may hold several frames.
type Journal struct {
	dir string
	now func() time.Time

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
	pending int // entries in the open frame
}

func NewJournal(dataDir string) *Journal {
	return &Journal{dir: filepath.Join(dataDir, "journal"), now: time.Now}
}

// WriteEntry appends e, stamping Time from the journal clock when unset.
// A new hour starts a new file.
func (j *Journal) WriteEntry(e Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := j.now().UTC()
	if e.Time == "" {
		e.Time = now.Format(time.RFC3339Nano)
	}
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("journal tick %d: %w", e.Tick, err)
	}

	hour := now.Format(hourLayout)
	if hour != j.curHour || j.w == nil {
		if err := j.openLocked(hour); err != nil {
			return err
		}
	}
	if _, err := j.w.Write(b); err != nil {
		return err
	}
	if err := j.w.WriteByte('\n'); err != nil {
		return err
	}
	j.pending++
	return j.w.Flush()
}

// Checkpoint ends the open frame so a reader sees every entry written so
// far. The relay calls it alongside each snapshot; the next entry opens a
// fresh frame in the same hourly file.
func (j *Journal) Checkpoint() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.pending == 0 {
		return nil
	}
	return j.closeLocked()
}

func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.closeLocked()
}

func (j *Journal) openLocked(hour string) error {
	if err := j.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(j.dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(j.dir, fmt.Sprintf("%s-%s.jsonl.zst", journalPrefix, hour))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	j.f, j.enc = f, enc
	j.w = bufio.NewWriterSize(enc, 128*1024)
	j.curHour = hour
	return nil
}

func (j *Journal) closeLocked() error {
	var err error
	if j.w != nil {
		err = j.w.Flush()
		j.w = nil
	}
	if j.enc != nil {
		if cerr := j.enc.Close(); err == nil {
			err = cerr
		}
		j.enc = nil
	}
	if j.f != nil {
		if cerr := j.f.Close(); err == nil {
			err = cerr
		}
		j.f = nil
	}
	j.curHour = ""
	j.pending = 0
	return err
}

// ListJournalFiles returns the journal files in dir in time order.
func ListJournalFiles(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, journalPrefix+"-") && strings.HasSuffix(name, ".jsonl.zst") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, filepath.Join(dir, name))
	}
	return out, nil
}

// ReadJournal calls fn for every entry of one journal file, stopping at
// the first error.
func ReadJournal(path string, fn func(Entry) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)
	for sc.Scan() {
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return fmt.Errorf("%s: unmarshal: %w", filepath.Base(path), err)
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return sc.Err()
}
