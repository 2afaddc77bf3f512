package walker

import (
	"bufio"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileInfo holds metadata about a discovered document file.
type FileInfo struct {
	Path    string
	RelPath string
	Size    int64
}

// maxFileSize is the largest document we'll consider (32 MB). PDFs run
// larger than plain text.
const maxFileSize = 32 << 20

// defaultIgnores are used when no .cortexignore file exists.
var defaultIgnores = []string{
	".git",
	".svn",
	".hg",
	"node_modules",
	"vendor",
	"__pycache__",
	".idea",
	".vscode",
	".cortex",
	"dist",
	"build",
}

// Walk traverses the directory tree rooted at root and sends discovered
// document files on the returned channel. It only emits files whose
// extension is in allowedExts, and skips directories matching .cortexignore
// patterns.
func Walk(root string, allowedExts map[string]bool) (<-chan FileInfo, <-chan error) {
	files := make(chan FileInfo, 64)
	errs := make(chan error, 1)

	go func() {
		defer close(files)
		defer close(errs)

		absRoot, err := filepath.Abs(root)
		if err != nil {
			errs <- err
			return
		}

		ignores := loadIgnorePatterns(absRoot)

		err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil // skip errors, keep walking
			}

			if d.IsDir() {
				if path == absRoot {
					return nil
				}
				rel, _ := filepath.Rel(absRoot, path)
				name := d.Name()
				if matchesIgnore(name, filepath.ToSlash(rel), ignores) {
					return filepath.SkipDir
				}
				return nil
			}

			// Skip symlinks.
			if d.Type()&fs.ModeSymlink != 0 {
				return nil
			}

			// Only emit files the extractors handle.
			ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
			if !allowedExts[ext] {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				return nil
			}

			// Skip oversized or empty files.
			if info.Size() > maxFileSize || info.Size() == 0 {
				return nil
			}

			relPath, _ := filepath.Rel(absRoot, path)
			files <- FileInfo{
				Path:    path,
				RelPath: filepath.ToSlash(relPath),
				Size:    info.Size(),
			}
			return nil
		})
		if err != nil {
			errs <- err
		}
	}()

	return files, errs
}

// loadIgnorePatterns reads .cortexignore from the ingest root. If the file
// doesn't exist, it creates one with the default patterns.
func loadIgnorePatterns(root string) []string {
	ignorePath := filepath.Join(root, ".cortexignore")

	f, err := os.Open(ignorePath)
	if err != nil {
		createDefaultIgnoreFile(ignorePath)
		return defaultIgnores
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	if len(patterns) == 0 {
		return defaultIgnores
	}
	return patterns
}

func createDefaultIgnoreFile(path string) {
	var b strings.Builder
	b.WriteString("# Directories to exclude from ingestion.\n")
	b.WriteString("# One pattern per line. Supports exact names and globs.\n\n")
	for _, p := range defaultIgnores {
		b.WriteString(p)
		b.WriteByte('\n')
	}
	// Best-effort write; if it fails the defaults are still used in memory.
	os.WriteFile(path, []byte(b.String()), 0o644)
}

// matchesIgnore checks if a directory name or relative path matches any ignore pattern.
func matchesIgnore(name, relPath string, patterns []string) bool {
	for _, p := range patterns {
		if name == p {
			return true
		}
		if strings.HasPrefix(relPath, p) {
			return true
		}
		if matched, _ := filepath.Match(p, relPath); matched {
			return true
		}
		if matched, _ := filepath.Match(p, name); matched {
			return true
		}
	}
	return false
}
