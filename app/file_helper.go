package app

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
	"github.com/thecodereport/tcdr/internal/constants"
)

// FileHelper provides file operation utilities
type FileHelper struct{}

// NewFileHelper creates a new FileHelper
func NewFileHelper() *FileHelper {
	return &FileHelper{}
}

// CollectReportFiles collects coverage reports from paths. Files are taken as
// given; directories are searched for names matching includePatterns.
// excludePatterns use gitignore syntax relative to each searched directory.
func (h *FileHelper) CollectReportFiles(paths []string, recursive bool, includePatterns, excludePatterns []string) ([]string, error) {
	if len(includePatterns) == 0 {
		includePatterns = []string{constants.DefaultReportPattern}
	}
	matcher := ignore.CompileIgnoreLines(excludePatterns...)

	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			files = append(files, path)
			continue
		}

		var found []string
		if recursive {
			err = filepath.WalkDir(path, func(filePath string, d os.DirEntry, err error) error {
				if err != nil {
					return err
				}
				rel, relErr := filepath.Rel(path, filePath)
				if relErr != nil || rel == "." {
					return nil
				}
				rel = filepath.ToSlash(rel)

				if d.IsDir() {
					// gitignore directory patterns only match with a trailing slash
					if matcher.MatchesPath(rel + "/") {
						return filepath.SkipDir
					}
					return nil
				}

				if h.isReportFile(filePath, includePatterns) && !matcher.MatchesPath(rel) {
					found = append(found, filePath)
				}
				return nil
			})
		} else {
			var entries []os.DirEntry
			entries, err = os.ReadDir(path)
			for _, entry := range entries {
				if entry.IsDir() {
					continue
				}
				filePath := filepath.Join(path, entry.Name())
				if h.isReportFile(filePath, includePatterns) && !matcher.MatchesPath(entry.Name()) {
					found = append(found, filePath)
				}
			}
		}
		if err != nil {
			return nil, err
		}

		sort.Strings(found)
		files = append(files, found...)
	}

	return files, nil
}

// FileExists checks if a file exists
func (h *FileHelper) FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return !info.IsDir(), nil
}

// ReadFile reads file content
func (h *FileHelper) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// isReportFile checks the base name against the include globs
func (h *FileHelper) isReportFile(path string, includePatterns []string) bool {
	base := filepath.Base(path)
	for _, pattern := range includePatterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
		if strings.EqualFold(pattern, base) {
			return true
		}
	}
	return false
}

// ResolveReportPaths returns paths directly when every one is an existing
// file and otherwise searches them for reports
func ResolveReportPaths(
	fileHelper *FileHelper,
	paths []string,
	recursive bool,
	includePatterns []string,
	excludePatterns []string,
) ([]string, error) {
	allFiles := true
	for _, path := range paths {
		exists, err := fileHelper.FileExists(path)
		if err != nil || !exists {
			allFiles = false
			break
		}
	}

	if allFiles {
		return paths, nil
	}

	return fileHelper.CollectReportFiles(paths, recursive, includePatterns, excludePatterns)
}
