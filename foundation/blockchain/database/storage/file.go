package storage

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"sync"

	"github.com/ardanlabs/provenance/foundation/blockchain/database"
)

// maxRecordSize is the largest single block record the file storage reads.
const maxRecordSize = 64 * 1024 * 1024

// File represents the serialization implementation for storing blocks as
// one JSON record per line in a single append-only file. This implements the
// database.Serializer interface.
type File struct {
	dbPath string
	mu     sync.Mutex
	dbFile *os.File
}

// NewFile opens the blocks file at the specified path, creating it if
// it doesn't exist.
func NewFile(dbPath string) (*File, error) {
	dbFile, err := os.OpenFile(dbPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, err
	}

	return &File{
		dbPath: dbPath,
		dbFile: dbFile,
	}, nil
}

// Close closes the blocks file.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.dbFile.Close()
}

// Write appends the block record to the end of the file and flushes it to
// stable storage before returning.
func (f *File) Write(blockData database.BlockData) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	// Marshal the block for writing to disk.
	data, err := json.Marshal(blockData)
	if err != nil {
		return err
	}

	// Write the new block to the chain on disk.
	if _, err := f.dbFile.Write(append(data, '\n')); err != nil {
		return err
	}

	return f.dbFile.Sync()
}

// ForEach returns an iterator to walk through all the blocks in the order
// they were written.
func (f *File) ForEach() database.Iterator {
	rf, err := os.Open(f.dbPath)
	if err != nil {
		return &FileIterator{err: err, done: errors.Is(err, fs.ErrNotExist)}
	}

	scanner := bufio.NewScanner(rf)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRecordSize)

	return &FileIterator{
		file:    rf,
		scanner: scanner,
	}
}

// =============================================================================

// FileIterator represents the iteration implementation for walking through
// the records of the blocks file. This implements the database Iterator
// interface.
type FileIterator struct {
	file    *os.File
	scanner *bufio.Scanner
	err     error
	done    bool
}

// Next retrieves the next block record from the file.
func (fi *FileIterator) Next() (database.BlockData, error) {
	if fi.done {
		return database.BlockData{}, errors.New("end of chain")
	}

	if fi.err != nil {
		return database.BlockData{}, fi.err
	}

	for {
		if !fi.scanner.Scan() {
			fi.file.Close()

			// A read failure is reported before the end of chain so the
			// caller doesn't mistake it for a shorter chain.
			if err := fi.scanner.Err(); err != nil {
				fi.err = err
				return database.BlockData{}, err
			}

			fi.done = true
			return database.BlockData{}, errors.New("end of chain")
		}

		line := bytes.TrimSpace(fi.scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		// Decode the record keeping numbers as written.
		dec := json.NewDecoder(bytes.NewReader(line))
		dec.UseNumber()

		var blockData database.BlockData
		if err := dec.Decode(&blockData); err != nil {
			return database.BlockData{}, err
		}

		return blockData, nil
	}
}

// Done returns the end of chain value.
func (fi *FileIterator) Done() bool {
	return fi.done
}
