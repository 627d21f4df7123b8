// Package resolver groups near-duplicate role values by edit distance and
// rewrites the variants of each group to a single canonical spelling.
package resolver

import (
	"errors"
	"fmt"
	"runtime"
	"sort"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/David-Botos/theatrical-curation/pkg/model"
)

// parallelThreshold is the number of distinct strings below which
// pairwise distances are computed on one goroutine
const parallelThreshold = 256

// Variant is one distinct spelling and the number of records using it
type Variant struct {
	Value string `json:"value" yaml:"value"`
	Count int    `json:"count" yaml:"count"`
}

// Cluster is a set of spellings connected by a chain of small edits
type Cluster struct {
	Variants []Variant `json:"variants" yaml:"variants"` // Sorted by value
}

// Canonical picks the representative spelling: most used, then shortest,
// then lexicographically smallest
func (c Cluster) Canonical() string {
	if len(c.Variants) == 0 {
		return ""
	}

	best := c.Variants[0]
	for _, v := range c.Variants[1:] {
		if better(v, best) {
			best = v
		}
	}
	return best.Value
}

// Records returns the total number of records holding any variant
func (c Cluster) Records() int {
	total := 0
	for _, v := range c.Variants {
		total += v.Count
	}
	return total
}

func better(a, b Variant) bool {
	if a.Count != b.Count {
		return a.Count > b.Count
	}
	la, lb := utf8.RuneCountInString(a.Value), utf8.RuneCountInString(b.Value)
	if la != lb {
		return la < lb
	}
	return a.Value < b.Value
}

// Similarity is the outcome of clustering a full role snapshot
type Similarity struct {
	Clusters []Cluster     // Clusters with at least two distinct spellings, ordered by first variant
	Records  []*model.Role // Records holding a clustered spelling, ordered by ID
}

// Dictionary builds the correction dictionary for the discovered clusters
func (s Similarity) Dictionary() Dictionary {
	return BuildDictionary(s.Clusters)
}

// Resolver clusters role values
type Resolver struct {
	opts   Options
	logger *zap.Logger
}

// New creates a new Resolver instance
func New(logger *zap.Logger, opts Options) (*Resolver, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid resolver options: %w", err)
	}
	if opts.Workers == 0 {
		opts.Workers = runtime.NumCPU()
	}

	return &Resolver{opts: opts, logger: logger}, nil
}

// Options returns the effective options
func (r *Resolver) Options() Options {
	return r.opts
}

// FindSimilar clusters the distinct role strings of a complete snapshot and
// returns the clusters of two or more spellings with the records using them.
// The result depends only on the set of input records, not their order. Nil
// entries are ignored.
func (r *Resolver) FindSimilar(roles []*model.Role) Similarity {
	similarity := Similarity{
		Clusters: make([]Cluster, 0),
		Records:  make([]*model.Role, 0),
	}
	if len(roles) == 0 {
		return similarity
	}

	// Count usage per exact spelling
	usage := make(map[string]int)
	for _, role := range roles {
		if role == nil {
			continue
		}
		usage[role.Value]++
	}

	values := make([]string, 0, len(usage))
	for value := range usage {
		values = append(values, value)
	}
	sort.Strings(values)

	terms := make([]term, len(values))
	for i, value := range values {
		terms[i] = newTerm(value)
	}

	set := newDisjointSet(len(terms))
	for _, edge := range r.similarPairs(terms) {
		set.union(edge[0], edge[1])
	}

	clustered := make(map[string]bool)
	for _, group := range set.groups() {
		if len(group) < 2 {
			continue
		}
		cluster := Cluster{Variants: make([]Variant, 0, len(group))}
		for _, idx := range group {
			cluster.Variants = append(cluster.Variants, Variant{Value: values[idx], Count: usage[values[idx]]})
			clustered[values[idx]] = true
		}
		similarity.Clusters = append(similarity.Clusters, cluster)
	}

	for _, role := range roles {
		if role != nil && clustered[role.Value] {
			similarity.Records = append(similarity.Records, role)
		}
	}
	sort.SliceStable(similarity.Records, func(i, j int) bool {
		return similarity.Records[i].ID < similarity.Records[j].ID
	})

	r.logger.Info("Clustered role values",
		zap.Int("records", len(roles)),
		zap.Int("distinctValues", len(values)),
		zap.Int("clusters", len(similarity.Clusters)),
		zap.Int("similarRecords", len(similarity.Records)))

	return similarity
}

// FindSimilarRoles returns the records whose value belongs to a cluster of
// two or more distinct spellings
func (r *Resolver) FindSimilarRoles(roles []*model.Role) []*model.Role {
	return r.FindSimilar(roles).Records
}

// similarPairs returns every index pair (i < j) of terms within the edit budget.
// Rows are spread over workers; the caller merges the pairs serially.
func (r *Resolver) similarPairs(terms []term) [][2]int {
	if len(terms) < parallelThreshold || r.opts.Workers <= 1 {
		var pairs [][2]int
		for i := range terms {
			pairs = append(pairs, r.row(terms, i)...)
		}
		return pairs
	}

	workers := r.opts.Workers
	perWorker := make([][][2]int, workers)

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			// interleave rows so early rows (the longest) are spread out
			for i := w; i < len(terms); i += workers {
				perWorker[w] = append(perWorker[w], r.row(terms, i)...)
			}
			return nil
		})
	}
	_ = g.Wait()

	var pairs [][2]int
	for _, p := range perWorker {
		pairs = append(pairs, p...)
	}
	return pairs
}

func (r *Resolver) row(terms []term, i int) [][2]int {
	var pairs [][2]int
	for j := i + 1; j < len(terms); j++ {
		if r.opts.similar(terms[i], terms[j]) {
			pairs = append(pairs, [2]int{i, j})
		}
	}
	return pairs
}

// BuildDictionary maps every non-canonical variant of each cluster to the
// cluster's canonical spelling
func BuildDictionary(clusters []Cluster) Dictionary {
	corrections := make(map[string]string)
	for _, cluster := range clusters {
		canonical := cluster.Canonical()
		for _, v := range cluster.Variants {
			if v.Value != canonical {
				corrections[v.Value] = canonical
			}
		}
	}
	return NewDictionary(corrections)
}

// ApplyCorrections rewrites each role whose value is a dictionary key and
// returns only the rewritten roles, in input order
func ApplyCorrections(roles []*model.Role, dictionary Dictionary) []*model.Role {
	changed := make([]*model.Role, 0)
	for _, role := range roles {
		if role == nil {
			continue
		}
		canonical, ok := dictionary.Lookup(role.Value)
		if !ok || canonical == role.Value {
			continue
		}
		role.Value = canonical
		changed = append(changed, role)
	}
	return changed
}

// MapWrongRolesToCorrect is ApplyCorrections under the name the admin API uses
func MapWrongRolesToCorrect(roles []*model.Role, dictionary Dictionary) []*model.Role {
	return ApplyCorrections(roles, dictionary)
}

// ConsolidationOperations returns one cleaning operation per rewritten role.
// before maps record keys to their value prior to ApplyCorrections.
func ConsolidationOperations(changed []*model.Role, before map[int64]string) []model.CleaningOperation {
	now := time.Now().UTC()
	operations := make([]model.CleaningOperation, 0, len(changed))
	for _, role := range changed {
		operations = append(operations, model.CleaningOperation{
			Kind:              model.KindRole,
			TableName:         "roles",
			ColumnName:        "value",
			OriginalValue:     before[role.ID],
			NewValue:          role.Value,
			RecordKey:         role.ID,
			CleaningOperation: model.OperationConsolidate,
			CleaningReason:    "similar_spelling",
			CleanedAt:         now,
		})
	}
	return operations
}
