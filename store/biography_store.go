package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/deepnoodle-ai/biographer/biography"
)

// BiographyStore persists versioned biography tree snapshots under
// root/<userID>/biography_<V>.json (and optionally a sibling .md render).
type BiographyStore struct {
	root string
}

// NewBiographyStore creates a store rooted at root.
func NewBiographyStore(root string) *BiographyStore {
	return &BiographyStore{root: root}
}

var versionFilePattern = regexp.MustCompile(`^biography_(\d+)\.json$`)

// NextVersion scans the user's directory for existing biography_<V>.json
// files and returns max(existing)+1, or 1 if none exist (spec §3:
// "the next save always bumps to max(existing)+1").
func (s *BiographyStore) NextVersion(userID string) (int, error) {
	dir, err := userDir(s.root, userID)
	if err != nil {
		return 0, err
	}
	matches, err := doublestar.FilepathGlob(filepath.Join(dir, "biography_*.json"))
	if err != nil {
		return 0, err
	}
	max := 0
	for _, m := range matches {
		sub := versionFilePattern.FindStringSubmatch(filepath.Base(m))
		if sub == nil {
			continue
		}
		v, err := strconv.Atoi(sub[1])
		if err == nil && v > max {
			max = v
		}
	}
	return max + 1, nil
}

// Save waits for any in-flight writes on tree to complete, then atomically
// writes the next version's JSON snapshot, and optionally a rendered
// markdown sibling (spec §4.3 Save).
func (s *BiographyStore) Save(ctx context.Context, tree *biography.Tree, saveMarkdown bool) error {
	waitCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := tree.WaitForWritesComplete(waitCtx); err != nil {
		return err
	}

	dir, err := userDir(s.root, tree.UserID)
	if err != nil {
		return err
	}
	version, err := s.NextVersion(tree.UserID)
	if err != nil {
		return err
	}
	tree.Version = version

	data, err := json.MarshalIndent(tree.Root, "", "  ")
	if err != nil {
		return err
	}
	jsonPath := filepath.Join(dir, fmt.Sprintf("biography_%d.json", version))
	if err := writeFileAtomic(jsonPath, data, 0o644); err != nil {
		return err
	}

	if saveMarkdown {
		mdPath := filepath.Join(dir, fmt.Sprintf("biography_%d.md", version))
		if err := writeFileAtomic(mdPath, []byte(tree.Render(true)), 0o644); err != nil {
			return err
		}
	}
	return nil
}

// Load reads the given version (or the latest, if version <= 0) for
// userID. If no snapshot exists at all, it returns a fresh empty tree
// rather than an error, matching the original's "create new if missing"
// behavior.
func (s *BiographyStore) Load(userID string, version int) (*biography.Tree, error) {
	dir, err := userDir(s.root, userID)
	if err != nil {
		return nil, err
	}

	if version <= 0 {
		next, err := s.NextVersion(userID)
		if err != nil {
			return nil, err
		}
		version = next - 1
		if version < 1 {
			return biography.New(userID, 1), nil
		}
	}

	path := filepath.Join(dir, fmt.Sprintf("biography_%d.json", version))
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return biography.New(userID, version), nil
		}
		return nil, err
	}

	var root biography.Section
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	tree := biography.New(userID, version)
	tree.Root = &root
	return tree, nil
}

// ListVersions returns every snapshot version available for userID,
// newest first.
func (s *BiographyStore) ListVersions(userID string) ([]int, error) {
	dir, err := userDir(s.root, userID)
	if err != nil {
		return nil, err
	}
	matches, err := doublestar.FilepathGlob(filepath.Join(dir, "biography_*.json"))
	if err != nil {
		return nil, err
	}
	versions := make([]int, 0, len(matches))
	for _, m := range matches {
		sub := versionFilePattern.FindStringSubmatch(filepath.Base(m))
		if sub == nil {
			continue
		}
		if v, err := strconv.Atoi(sub[1]); err == nil {
			versions = append(versions, v)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(versions)))
	return versions, nil
}
