package db

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	lockFileName = "db.lock"

	// lockWait bounds how long a mutation waits for another process when the
	// caller's context has no earlier deadline. Matches busy_timeout.
	lockWait    = 500 * time.Millisecond
	pollMin     = 5 * time.Millisecond
	pollCeiling = 50 * time.Millisecond
)

// Store operations recorded as the lock holder.
const (
	opInsert = "insert"
	opMark   = "mark"
	opPurge  = "purge"
)

// writeLocker serializes store mutations across processes (the CLI and a
// running agent) with an OS file lock on .roster/db.lock. The OS drops the
// lock when the holding process exits, crashes included.
type writeLocker struct {
	lockPath string
	op       string
	lockFile *os.File
}

func newWriteLocker(baseDir, op string) *writeLocker {
	return &writeLocker{
		lockPath: filepath.Join(baseDir, DataDir, lockFileName),
		op:       op,
	}
}

// acquire polls for the lock until it is free, ctx is done, or lockWait
// elapses. A timeout names the current holder.
func (l *writeLocker) acquire(ctx context.Context) error {
	f, err := os.OpenFile(l.lockPath, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, lockWait)
	defer cancel()

	l.lockFile = f
	poll := pollMin
	for {
		if err := l.tryLock(); err == nil {
			l.recordHolder()
			return nil
		}

		select {
		case <-waitCtx.Done():
			l.lockFile.Close()
			l.lockFile = nil
			if ctx.Err() != nil {
				return fmt.Errorf("%s: waiting for write lock: %w", l.op, ctx.Err())
			}
			return fmt.Errorf("%s: write lock busy after %v, held by %s", l.op, lockWait, l.holder())
		case <-time.After(poll):
		}
		poll = min(poll*2, pollCeiling)
	}
}

func (l *writeLocker) release() {
	if l.lockFile == nil {
		return
	}
	_ = l.lockFile.Truncate(0)
	l.unlock()
	l.lockFile.Close()
	l.lockFile = nil
}

// recordHolder writes pid, operation and start time into the lock file so a
// blocked process can say who it is waiting for.
func (l *writeLocker) recordHolder() {
	_ = l.lockFile.Truncate(0)
	_, _ = l.lockFile.Seek(0, 0)
	fmt.Fprintf(l.lockFile, "pid=%d\nop=%s\nsince=%s\n", os.Getpid(), l.op, time.Now().UTC().Format(time.RFC3339))
}

// lockHolder is the content of db.lock while a mutation runs.
type lockHolder struct {
	pid   int
	op    string
	since string
}

func (h lockHolder) String() string {
	s := fmt.Sprintf("pid %d (%s since %s)", h.pid, h.op, h.since)
	if !isProcessAlive(h.pid) {
		s += ", process gone"
	}
	return s
}

func (l *writeLocker) holder() string {
	h, err := readHolder(l.lockPath)
	if err != nil {
		return "an unknown process"
	}
	return h.String()
}

func readHolder(path string) (lockHolder, error) {
	f, err := os.Open(path)
	if err != nil {
		return lockHolder{}, err
	}
	defer f.Close()

	var h lockHolder
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		key, val, ok := strings.Cut(sc.Text(), "=")
		if !ok {
			continue
		}
		switch key {
		case "pid":
			h.pid, _ = strconv.Atoi(val)
		case "op":
			h.op = val
		case "since":
			h.since = val
		}
	}
	if err := sc.Err(); err != nil {
		return lockHolder{}, err
	}
	if h.pid == 0 {
		return lockHolder{}, errors.New("no holder recorded")
	}
	return h, nil
}

// tryLock, unlock and isProcessAlive live in lock_unix.go and lock_windows.go.
