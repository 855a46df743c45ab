package storage

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// Scratch hands out uniquely named temp files & dirs under one root
// and keeps track of them until they are removed.
type Scratch struct {
	dir   string
	live  map[string]struct{}
	mutex sync.Mutex
}

func NewScratch(dir string) (*Scratch, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create scratch dir; %w", err)
	}

	return &Scratch{
		dir:  dir,
		live: make(map[string]struct{}),
	}, nil
}

func (s *Scratch) Dir() string {
	return s.dir
}

// Write copies the reader into a new temp file ending in suffix
// and returns its path. Callers must Remove the path when done.
func (s *Scratch) Write(reader io.Reader, suffix string) (string, error) {
	f, err := os.CreateTemp(s.dir, "speechbox-*"+suffix)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file; %w", err)
	}
	s.track(f.Name())

	_, err = io.Copy(f, reader)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		s.Remove(f.Name())
		return "", fmt.Errorf("failed to write temp file; %w", err)
	}

	return f.Name(), nil
}

// Reserve registers a path that some other process will create
// (e.g. an ffmpeg output) so it gets cleaned up with everything else.
func (s *Scratch) Reserve(path string) string {
	s.track(path)
	return path
}

// Mkdir creates a new empty temp dir
func (s *Scratch) Mkdir() (string, error) {
	dir, err := os.MkdirTemp(s.dir, "speechbox-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir; %w", err)
	}
	s.track(dir)
	return dir, nil
}

// Remove deletes a tracked path (file or dir). Missing paths are fine.
func (s *Scratch) Remove(path string) {
	if err := os.RemoveAll(path); err != nil {
		logrus.WithError(err).WithField("path", path).Warnln("failed to remove scratch path")
	}

	s.mutex.Lock()
	delete(s.live, path)
	s.mutex.Unlock()
}

// Live returns how many tracked paths have not been removed yet
func (s *Scratch) Live() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.live)
}

// Cleanup removes everything still tracked. Used on shutdown.
func (s *Scratch) Cleanup() {
	s.mutex.Lock()
	paths := make([]string, 0, len(s.live))
	for path := range s.live {
		paths = append(paths, path)
	}
	s.mutex.Unlock()

	for _, path := range paths {
		s.Remove(path)
	}
}

func (s *Scratch) track(path string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.live[path] = struct{}{}
}
