// Package platform discovers workspace items. An item is any folder carrying
// a .platform metadata file; its type (Report, SemanticModel, ...) comes from
// that file's metadata block.
package platform

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Item types this tool cares about.
const (
	TypeReport        = "Report"
	TypeSemanticModel = "SemanticModel"
)

// MetadataFile is the marker file that makes a folder an item.
const MetadataFile = ".platform"

// DefaultMaxDepth bounds the recursive item search.
const DefaultMaxDepth = 5

// Item is one discovered workspace item.
type Item struct {
	Path        string // item folder
	Type        string // "Report", "SemanticModel", or other
	DisplayName string
}

// Group holds the items found under one holding folder, split by type.
type Group struct {
	Folder         string
	Reports        []Item
	SemanticModels []Item
}

type platformFile struct {
	Metadata struct {
		Type        string `json:"type"`
		DisplayName string `json:"displayName"`
	} `json:"metadata"`
}

// ReadItem reads the .platform metadata of an item folder.
func ReadItem(dir string) (Item, error) {
	data, err := os.ReadFile(filepath.Join(dir, MetadataFile))
	if err != nil {
		return Item{}, fmt.Errorf("reading item metadata in %s: %w", dir, err)
	}

	var pf platformFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return Item{}, fmt.Errorf("parsing item metadata in %s: %w", dir, err)
	}

	return Item{Path: dir, Type: pf.Metadata.Type, DisplayName: pf.Metadata.DisplayName}, nil
}

// findItemDirs lists folders containing a .platform file, up to maxDepth
// levels below root. A folder that is itself an item is not descended into.
func findItemDirs(root string, maxDepth int) ([]string, error) {
	if _, err := os.Stat(filepath.Join(root, MetadataFile)); err == nil {
		return []string{root}, nil
	}
	if maxDepth == 0 {
		return nil, nil
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}

	var dirs []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		sub, err := findItemDirs(filepath.Join(root, entry.Name()), maxDepth-1)
		if err != nil {
			return nil, err
		}
		dirs = append(dirs, sub...)
	}
	return dirs, nil
}

// Discover finds all items under root and groups them by holding folder.
// Groups come back sorted by folder path, items sorted by path within each
// group. Items with unreadable metadata are skipped.
func Discover(root string, maxDepth int) ([]Group, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	dirs, err := findItemDirs(root, maxDepth)
	if err != nil {
		return nil, err
	}

	byFolder := make(map[string]*Group)
	for _, dir := range dirs {
		item, err := ReadItem(dir)
		if err != nil {
			continue
		}

		folder := filepath.Dir(dir)
		group, ok := byFolder[folder]
		if !ok {
			group = &Group{Folder: folder}
			byFolder[folder] = group
		}

		switch item.Type {
		case TypeReport:
			group.Reports = append(group.Reports, item)
		case TypeSemanticModel:
			group.SemanticModels = append(group.SemanticModels, item)
		}
	}

	groups := make([]Group, 0, len(byFolder))
	for _, g := range byFolder {
		sort.Slice(g.Reports, func(i, j int) bool { return g.Reports[i].Path < g.Reports[j].Path })
		sort.Slice(g.SemanticModels, func(i, j int) bool { return g.SemanticModels[i].Path < g.SemanticModels[j].Path })
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Folder < groups[j].Folder })
	return groups, nil
}
