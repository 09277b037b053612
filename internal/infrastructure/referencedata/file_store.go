// Package referencedata serves fee schedules, exchange rates and grant
// programmes from a YAML document. A default document mirroring the database
// seed is embedded so the engine runs without any infrastructure.
package referencedata

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/turtacn/KeyIP-CostEngine/internal/domain/costing"
	"github.com/turtacn/KeyIP-CostEngine/pkg/errors"
)

//go:embed default.yaml
var defaultDocument []byte

// Document is the on-disk layout.
type Document struct {
	Fees   []costing.FeeRecord    `yaml:"fees"`
	Rates  []costing.ExchangeRate `yaml:"rates"`
	Grants []costing.GrantProgram `yaml:"grants"`
}

// FileStore is an immutable in-memory store built from a Document.
type FileStore struct {
	fees   *costing.FeeTable
	rates  []costing.ExchangeRate
	grants []costing.GrantProgram
	count  int
}

var (
	_ costing.FeeStore   = (*FileStore)(nil)
	_ costing.RateStore  = (*FileStore)(nil)
	_ costing.GrantStore = (*FileStore)(nil)
)

// Parse decodes and validates a YAML document. Unlike the database
// repositories, a file with any invalid record is rejected as a whole.
func Parse(data []byte) (*FileStore, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeReferenceLoadFailed, "failed to decode reference data")
	}
	return FromDocument(doc)
}

func FromDocument(doc Document) (*FileStore, error) {
	var problems []string
	seen := make(map[string]bool, len(doc.Fees))
	for i, f := range doc.Fees {
		if err := f.Validate(); err != nil {
			problems = append(problems, fmt.Sprintf("fees[%d]: %v", i, err))
		}
		if seen[f.ID] {
			problems = append(problems, fmt.Sprintf("fees[%d]: duplicate id %q", i, f.ID))
		}
		seen[f.ID] = true
	}
	for i, r := range doc.Rates {
		if err := r.Validate(); err != nil {
			problems = append(problems, fmt.Sprintf("rates[%d]: %v", i, err))
		}
	}
	for i, g := range doc.Grants {
		if err := g.Validate(); err != nil {
			problems = append(problems, fmt.Sprintf("grants[%d]: %v", i, err))
		}
	}
	if len(problems) > 0 {
		return nil, errors.New(errors.ErrCodeFeeRecordInvalid, "invalid reference data").
			WithDetail(strings.Join(problems, "; "))
	}

	grants := append([]costing.GrantProgram(nil), doc.Grants...)
	sort.Slice(grants, func(a, b int) bool { return grants[a].ID < grants[b].ID })

	return &FileStore{
		fees:   costing.NewFeeTable(doc.Fees),
		rates:  append([]costing.ExchangeRate(nil), doc.Rates...),
		grants: grants,
		count:  len(doc.Fees),
	}, nil
}

// Load reads a document from path.
func Load(path string) (*FileStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeReferenceLoadFailed, "failed to read reference data").WithDetail(path)
	}
	return Parse(data)
}

// Default returns the store built from the embedded document.
func Default() (*FileStore, error) {
	return Parse(defaultDocument)
}

// Open loads path, or the embedded document when path is empty.
func Open(path string) (*FileStore, error) {
	if path == "" {
		return Default()
	}
	return Load(path)
}

// FeeCount reports how many fee records the store holds.
func (s *FileStore) FeeCount() int { return s.count }

func (s *FileStore) GetFees(_ context.Context, j costing.Jurisdiction, ipType costing.IPType, asOf time.Time) ([]costing.FeeRecord, error) {
	return s.fees.Records(j, ipType, asOf), nil
}

func (s *FileStore) GetRatesAsOf(_ context.Context, asOf time.Time) (costing.RateTable, error) {
	return costing.NewRateTable(s.rates, asOf), nil
}

func (s *FileStore) GetActiveGrants(_ context.Context, asOf time.Time) ([]costing.GrantProgram, error) {
	var out []costing.GrantProgram
	for _, g := range s.grants {
		if g.ActiveAt(asOf) {
			out = append(out, g)
		}
	}
	return out, nil
}

//Personal.AI order the ending
