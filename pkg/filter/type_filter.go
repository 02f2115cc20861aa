// Package filter classifies Go type names for report views. It decides
// which types read as user code, standard library plumbing, or plain
// data containers, so listings can focus on what callers own.
package filter

import (
	"strings"
	"sync"
)

// TypeCategory buckets a type name.
type TypeCategory int

const (
	// CategoryUnknown indicates the type could not be classified.
	CategoryUnknown TypeCategory = iota
	// CategoryPrimitive indicates builtin scalars and their slices.
	CategoryPrimitive
	// CategoryStdlib indicates standard library types.
	CategoryStdlib
	// CategoryContainer indicates anonymous container shapes: maps,
	// slices, channels, funcs.
	CategoryContainer
	// CategoryApplication indicates regular package types.
	CategoryApplication
	// CategoryBusiness indicates types under registered app prefixes.
	CategoryBusiness
)

// String returns the string representation of the category.
func (c TypeCategory) String() string {
	switch c {
	case CategoryPrimitive:
		return "primitive"
	case CategoryStdlib:
		return "stdlib"
	case CategoryContainer:
		return "container"
	case CategoryApplication:
		return "application"
	case CategoryBusiness:
		return "business"
	default:
		return "unknown"
	}
}

// TypeFilter classifies the type names reflect produces, such as
// "time.Time", "[]byte" or "map[string]interface {}". Safe for
// concurrent use.
type TypeFilter struct {
	mu sync.RWMutex

	// Builtin scalar names and their direct slices.
	primitives map[string]bool

	// Short package prefixes reflect prints for the standard library.
	stdlibPrefixes []string

	// Types hidden from top-object listings.
	topLevelFilteredTypes    map[string]bool
	topLevelFilteredPrefixes []string
	topLevelFilteredContains []string

	// Registered app package prefixes.
	businessPrefixes []string

	categoryCache     map[string]TypeCategory
	categoryCacheSize int
}

// NewTypeFilter creates a filter with the default rules.
func NewTypeFilter() *TypeFilter {
	f := &TypeFilter{
		categoryCache:     make(map[string]TypeCategory),
		categoryCacheSize: 10000,
	}
	f.initDefaults()
	return f
}

func (f *TypeFilter) initDefaults() {
	scalars := []string{
		"bool", "string",
		"int", "int8", "int16", "int32", "int64",
		"uint", "uint8", "uint16", "uint32", "uint64", "uintptr",
		"float32", "float64", "complex64", "complex128",
		"byte", "rune", "error",
	}
	f.primitives = make(map[string]bool, len(scalars)*2)
	for _, s := range scalars {
		f.primitives[s] = true
		f.primitives["[]"+s] = true
	}

	// reflect prints short package names, so these are the last path
	// elements of the standard library packages that show up in heaps.
	f.stdlibPrefixes = []string{
		"time.", "sync.", "atomic.", "bytes.", "strings.", "bufio.",
		"io.", "os.", "net.", "http.", "url.", "tls.", "x509.",
		"reflect.", "regexp.", "sort.", "context.", "json.", "xml.",
		"base64.", "hex.", "sql.", "big.", "rand.", "md5.", "sha256.",
		"gzip.", "zlib.", "flate.", "template.", "textproto.", "mime.",
		"multipart.", "exec.", "filepath.", "fs.", "log.", "slog.",
		"runtime.", "debug.", "pprof.", "heap.", "list.", "ring.",
	}

	// Containers and raw buffers headline almost every heap; hiding
	// them from top-object views leaves the types that own them.
	f.topLevelFilteredTypes = map[string]bool{
		"[]byte":                  true,
		"[]uint8":                 true,
		"string":                  true,
		"[]string":                true,
		"[]interface {}":          true,
		"map[string]interface {}": true,
		"map[string]string":       true,
		"[]int":                   true,
		"[]int64":                 true,
		"[]uint64":                true,
		"[]float64":               true,
	}
	f.topLevelFilteredPrefixes = []string{
		"map[",
		"chan ",
		"func(",
	}
	f.topLevelFilteredContains = []string{
		"interface {}",
	}
}

// Classify returns the category of a type name.
func (f *TypeFilter) Classify(typeName string) TypeCategory {
	if typeName == "" {
		return CategoryUnknown
	}

	f.mu.RLock()
	if cat, ok := f.categoryCache[typeName]; ok {
		f.mu.RUnlock()
		return cat
	}
	f.mu.RUnlock()

	cat := f.classifyUncached(typeName)

	f.mu.Lock()
	if len(f.categoryCache) < f.categoryCacheSize {
		f.categoryCache[typeName] = cat
	}
	f.mu.Unlock()

	return cat
}

func (f *TypeFilter) classifyUncached(typeName string) TypeCategory {
	if f.primitives[typeName] {
		return CategoryPrimitive
	}

	// Strip pointers before structural checks; *T categorizes as T.
	name := strings.TrimLeft(typeName, "*")
	if f.primitives[name] {
		return CategoryPrimitive
	}

	if strings.HasPrefix(name, "map[") ||
		strings.HasPrefix(name, "[]") ||
		strings.HasPrefix(name, "[") ||
		strings.HasPrefix(name, "chan ") ||
		strings.HasPrefix(name, "func(") ||
		strings.HasPrefix(name, "struct {") ||
		strings.HasPrefix(name, "interface {") {
		return CategoryContainer
	}

	f.mu.RLock()
	businessPrefixes := f.businessPrefixes
	stdlibPrefixes := f.stdlibPrefixes
	f.mu.RUnlock()

	for _, prefix := range businessPrefixes {
		if strings.HasPrefix(name, prefix) {
			return CategoryBusiness
		}
	}
	for _, prefix := range stdlibPrefixes {
		if strings.HasPrefix(name, prefix) {
			return CategoryStdlib
		}
	}

	// Unqualified names with no package dot are builtin-adjacent.
	if !strings.Contains(name, ".") {
		return CategoryPrimitive
	}

	return CategoryApplication
}

// IsPrimitive returns true for builtin scalars and their slices.
func (f *TypeFilter) IsPrimitive(typeName string) bool {
	return f.Classify(typeName) == CategoryPrimitive
}

// IsStdlib returns true for standard library types.
func (f *TypeFilter) IsStdlib(typeName string) bool {
	return f.Classify(typeName) == CategoryStdlib
}

// IsContainer returns true for anonymous container shapes.
func (f *TypeFilter) IsContainer(typeName string) bool {
	return f.Classify(typeName) == CategoryContainer
}

// IsApplication returns true for package types outside the standard
// library, registered business prefixes included.
func (f *TypeFilter) IsApplication(typeName string) bool {
	cat := f.Classify(typeName)
	return cat == CategoryApplication || cat == CategoryBusiness
}

// ShouldFilterTopLevel reports whether a type is too generic to
// headline a top-objects listing.
func (f *TypeFilter) ShouldFilterTopLevel(typeName string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.topLevelFilteredTypes[typeName] {
		return true
	}
	for _, prefix := range f.topLevelFilteredPrefixes {
		if strings.HasPrefix(typeName, prefix) {
			return true
		}
	}
	for _, substr := range f.topLevelFilteredContains {
		if strings.Contains(typeName, substr) {
			return true
		}
	}
	return false
}

// AddBusinessPrefix registers an app package prefix. Matching types
// classify as CategoryBusiness.
func (f *TypeFilter) AddBusinessPrefix(prefix string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, p := range f.businessPrefixes {
		if p == prefix {
			return
		}
	}
	// Copy on write so Classify can read a snapshot without the lock.
	next := make([]string, 0, len(f.businessPrefixes)+1)
	next = append(next, f.businessPrefixes...)
	f.businessPrefixes = append(next, prefix)
	f.categoryCache = make(map[string]TypeCategory)
}

// AddBusinessPrefixes registers several prefixes.
func (f *TypeFilter) AddBusinessPrefixes(prefixes []string) {
	for _, prefix := range prefixes {
		f.AddBusinessPrefix(prefix)
	}
}

// AddStdlibPrefix extends the standard library prefix list.
func (f *TypeFilter) AddStdlibPrefix(prefix string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	next := make([]string, 0, len(f.stdlibPrefixes)+1)
	next = append(next, f.stdlibPrefixes...)
	f.stdlibPrefixes = append(next, prefix)
	f.categoryCache = make(map[string]TypeCategory)
}

// AddTopLevelFilteredType hides a type from top-object listings.
func (f *TypeFilter) AddTopLevelFilteredType(typeName string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.topLevelFilteredTypes[typeName] = true
}

// ClearCache drops the classification cache.
func (f *TypeFilter) ClearCache() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.categoryCache = make(map[string]TypeCategory)
}

// CacheStats returns the cache fill and limit.
func (f *TypeFilter) CacheStats() (size int, maxSize int) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return len(f.categoryCache), f.categoryCacheSize
}

// DefaultFilter is the shared filter instance.
var DefaultFilter = NewTypeFilter()

// Classify classifies a type name using the default filter.
func Classify(typeName string) TypeCategory {
	return DefaultFilter.Classify(typeName)
}

// IsPrimitive checks a type name using the default filter.
func IsPrimitive(typeName string) bool {
	return DefaultFilter.IsPrimitive(typeName)
}

// IsStdlib checks a type name using the default filter.
func IsStdlib(typeName string) bool {
	return DefaultFilter.IsStdlib(typeName)
}

// IsApplication checks a type name using the default filter.
func IsApplication(typeName string) bool {
	return DefaultFilter.IsApplication(typeName)
}

// ShouldFilterTopLevel checks a type name using the default filter.
func ShouldFilterTopLevel(typeName string) bool {
	return DefaultFilter.ShouldFilterTopLevel(typeName)
}

// AddBusinessPrefix registers a prefix on the default filter.
func AddBusinessPrefix(prefix string) {
	DefaultFilter.AddBusinessPrefix(prefix)
}
