package graphql

import (
	"fmt"
	"io/fs"
	"path"
	"strings"
	"sync"
)

// Extension is the file extension of GraphQL documents
const Extension = ".graphql"

// Loader loads GraphQL documents from a filesystem, typically os.DirFS of a
// directory of .graphql files
type Loader struct {
	fsys  fs.FS
	cache map[string]string
	mu    sync.RWMutex
}

// NewLoader creates a loader reading from fsys
func NewLoader(fsys fs.FS) *Loader {
	return &Loader{
		fsys:  fsys,
		cache: make(map[string]string),
	}
}

// Load loads a document by path. The extension may be omitted.
func (l *Loader) Load(name string) (string, error) {
	if !strings.HasSuffix(name, Extension) {
		name += Extension
	}

	l.mu.RLock()
	if doc, ok := l.cache[name]; ok {
		l.mu.RUnlock()
		return doc, nil
	}
	l.mu.RUnlock()

	content, err := fs.ReadFile(l.fsys, path.Clean(name))
	if err != nil {
		return "", fmt.Errorf("failed to load query %s: %w", name, err)
	}

	doc := string(content)

	l.mu.Lock()
	l.cache[name] = doc
	l.mu.Unlock()

	return doc, nil
}

// List returns the paths of all documents, without extension
func (l *Loader) List() ([]string, error) {
	var names []string

	err := fs.WalkDir(l.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), Extension) {
			names = append(names, strings.TrimSuffix(p, Extension))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list queries: %w", err)
	}

	return names, nil
}

// OperationName extracts the name of the first named operation in doc, or
// "unknown" for anonymous documents
func OperationName(doc string) string {
	for _, keyword := range []string{"query", "mutation", "subscription"} {
		if name := operationAfter(doc, keyword); name != "" {
			return name
		}
	}
	return "unknown"
}

func operationAfter(doc, keyword string) string {
	from := 0
	for {
		pos := strings.Index(doc[from:], keyword)
		if pos == -1 {
			return ""
		}
		start := from + pos + len(keyword)
		from = from + pos + 1

		// keyword must stand alone
		if pos := start - len(keyword); pos > 0 && isNameChar(doc[pos-1]) {
			continue
		}
		if start >= len(doc) || !isSpace(doc[start]) {
			continue
		}

		rest := strings.TrimLeft(doc[start:], " \t\r\n")
		end := strings.IndexFunc(rest, func(r rune) bool {
			return r > 127 || !isNameChar(byte(r))
		})
		if end == -1 {
			end = len(rest)
		}
		if name := rest[:end]; name != "" && !isDigit(name[0]) {
			return name
		}
	}
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isNameChar(ch byte) bool {
	return ch == '_' || isDigit(ch) || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}
