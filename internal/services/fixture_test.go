package services

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"

	"tagnotes/internal/events"
)

// repoFixture builds a throwaway repository with controlled timestamps.
type repoFixture struct {
	t    *testing.T
	dir  string
	repo *git.Repository
	wt   *git.Worktree
}

func newRepoFixture(t *testing.T) *repoFixture {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	return &repoFixture{t: t, dir: dir, repo: repo, wt: wt}
}

func (f *repoFixture) write(path string, content []byte) {
	f.t.Helper()
	full := filepath.Join(f.dir, path)
	require.NoError(f.t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(f.t, os.WriteFile(full, content, 0o644))
	_, err := f.wt.Add(path)
	require.NoError(f.t, err)
}

func (f *repoFixture) remove(path string) {
	f.t.Helper()
	_, err := f.wt.Remove(path)
	require.NoError(f.t, err)
}

func (f *repoFixture) writeText(path, content string) {
	f.write(path, []byte(content))
}

func (f *repoFixture) commit(msg string, when time.Time) plumbing.Hash {
	f.t.Helper()
	sig := &object.Signature{Name: "Release Bot", Email: "bot@example.com", When: when}
	hash, err := f.wt.Commit(msg, &git.CommitOptions{Author: sig, Committer: sig, AllowEmptyCommits: true})
	require.NoError(f.t, err)
	return hash
}

// lightweight tags carry no date of their own; the commit date applies.
func (f *repoFixture) lightweight(name string, hash plumbing.Hash) {
	f.t.Helper()
	_, err := f.repo.CreateTag(name, hash, nil)
	require.NoError(f.t, err)
}

func (f *repoFixture) annotated(name string, hash plumbing.Hash, when time.Time) {
	f.t.Helper()
	_, err := f.repo.CreateTag(name, hash, &git.CreateTagOptions{
		Tagger:  &object.Signature{Name: "Release Bot", Email: "bot@example.com", When: when},
		Message: "release " + name,
	})
	require.NoError(f.t, err)
}

func (f *repoFixture) blobHash(commit plumbing.Hash, path string) plumbing.Hash {
	f.t.Helper()
	c, err := f.repo.CommitObject(commit)
	require.NoError(f.t, err)
	file, err := c.File(path)
	require.NoError(f.t, err)
	return file.Hash
}

func day(y int, m time.Month, d, hour int) time.Time {
	return time.Date(y, m, d, hour, 0, 0, 0, time.UTC)
}

// captureEvents records emitted events for the duration of a test.
type capturedEvents struct {
	mu     sync.Mutex
	events []events.PipelineEvent
	names  []string
}

func captureEvents(t *testing.T) *capturedEvents {
	t.Helper()
	c := &capturedEvents{}
	events.SetCustomEmitter(func(_ context.Context, name string, evt events.PipelineEvent) {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.names = append(c.names, name)
		c.events = append(c.events, evt)
	})
	t.Cleanup(func() { events.SetCustomEmitter(nil) })
	return c
}

func (c *capturedEvents) ofType(typ events.EventType) []events.PipelineEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []events.PipelineEvent
	for _, e := range c.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}
