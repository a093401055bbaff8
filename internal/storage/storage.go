// Package storage archives finished plans as JSON documents, either on
// the local filesystem or in S3, under date-partitioned keys.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hondana/buyback-mailer/internal/engine"
)

// Archive stores and retrieves plan documents.
type Archive interface {
	// SavePlan writes the plan and returns its archive key.
	SavePlan(ctx context.Context, p *engine.Plan) (string, error)
	// LoadPlan reads the plan at the given archive key.
	LoadPlan(ctx context.Context, key string) (*engine.Plan, error)
	// ListDay returns the archive keys for one calendar day.
	ListDay(ctx context.Context, year int, month int, day int) ([]string, error)
}

// PlanKey builds the archive key for a plan: plans/YYYY/MM/DD/<id>.json.
func PlanKey(p *engine.Plan) string {
	return fmt.Sprintf("plans/%s/%s.json", p.CreatedAt.UTC().Format("2006/01/02"), p.ID)
}

func dayPrefix(year, month, day int) string {
	return fmt.Sprintf("plans/%04d/%02d/%02d/", year, month, day)
}

// LocalArchive keeps plan documents under a directory tree mirroring
// the archive keys.
type LocalArchive struct {
	root string
}

func NewLocalArchive(root string) (*LocalArchive, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}
	return &LocalArchive{root: root}, nil
}

func (a *LocalArchive) SavePlan(ctx context.Context, p *engine.Plan) (string, error) {
	key := PlanKey(p)
	path := filepath.Join(a.root, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("creating plan directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating plan file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(p); err != nil {
		return "", fmt.Errorf("writing plan %s: %w", p.ID, err)
	}
	return key, nil
}

func (a *LocalArchive) LoadPlan(ctx context.Context, key string) (*engine.Plan, error) {
	path := filepath.Join(a.root, filepath.FromSlash(key))
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening plan %s: %w", key, err)
	}
	defer file.Close()

	var p engine.Plan
	if err := json.NewDecoder(file).Decode(&p); err != nil {
		return nil, fmt.Errorf("decoding plan %s: %w", key, err)
	}
	return &p, nil
}

func (a *LocalArchive) ListDay(ctx context.Context, year, month, day int) ([]string, error) {
	prefix := dayPrefix(year, month, day)
	dir := filepath.Join(a.root, filepath.FromSlash(prefix))

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing archive day: %w", err)
	}

	var keys []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		keys = append(keys, prefix+entry.Name())
	}
	sort.Strings(keys)
	return keys, nil
}
