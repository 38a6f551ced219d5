// Package disposable holds the process-wide set of throwaway email domains.
package disposable

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
)

//go:embed domains.txt
var defaultDomains string

// Options controls how the set is assembled
type Options struct {
	// File is an optional list of extra domains, one per line
	File string
	// Extra domains appended from configuration
	Extra []string
	// Allowed domains are removed from the final set
	Allowed []string
}

// Set is an immutable set of lower-cased domains. It is never modified
// after Load returns, so concurrent readers need no locking.
type Set struct {
	domains map[string]struct{}
}

// Load builds the set from the embedded defaults, the optional file, the
// extra domains, and finally removes the allowed domains
func Load(opts Options, logger *zap.Logger) (*Set, error) {
	domains := make(map[string]struct{})

	if err := readList(strings.NewReader(defaultDomains), domains); err != nil {
		return nil, fmt.Errorf("failed to read embedded domain list: %w", err)
	}

	if opts.File != "" {
		f, err := os.Open(opts.File)
		if err != nil {
			return nil, fmt.Errorf("failed to open disposable domain file: %w", err)
		}
		defer f.Close()
		if err := readList(f, domains); err != nil {
			return nil, fmt.Errorf("failed to read disposable domain file: %w", err)
		}
	}

	for _, d := range opts.Extra {
		if d = normalize(d); d != "" {
			domains[d] = struct{}{}
		}
	}

	for _, d := range opts.Allowed {
		delete(domains, normalize(d))
	}

	if logger != nil {
		logger.Info("Loaded disposable domain set",
			zap.Int("domains", len(domains)),
			zap.String("file", opts.File),
			zap.Strings("allowed", opts.Allowed))
	}

	return &Set{domains: domains}, nil
}

// New creates a set from an explicit list of domains
func New(domains ...string) *Set {
	s := &Set{domains: make(map[string]struct{}, len(domains))}
	for _, d := range domains {
		if d = normalize(d); d != "" {
			s.domains[d] = struct{}{}
		}
	}
	return s
}

// Contains reports whether domain is in the set. The caller lower-cases.
func (s *Set) Contains(domain string) bool {
	_, ok := s.domains[domain]
	return ok
}

// Len returns the number of domains in the set
func (s *Set) Len() int {
	return len(s.domains)
}

func readList(r io.Reader, into map[string]struct{}) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		if d := normalize(line); d != "" {
			into[d] = struct{}{}
		}
	}
	return scanner.Err()
}

func normalize(domain string) string {
	return strings.ToLower(strings.TrimSpace(domain))
}
