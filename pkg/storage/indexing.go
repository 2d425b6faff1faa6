package storage

import (
	"sort"
)

// Index label names
const (
	LabelOwner  = "owner"
	LabelFamily = "family"
)

// Labels maps label names to values
type Labels map[string]string

// Index is an in-memory inverted index over stored records. It is not
// safe for concurrent use; Store guards it with its own lock.
type Index struct {
	// record ID -> labels
	records map[string]Labels
	// Inverted index: label name -> label value -> record IDs
	postings map[string]map[string]map[string]struct{}
}

// NewIndex creates a new index
func NewIndex() *Index {
	return &Index{
		records:  make(map[string]Labels),
		postings: make(map[string]map[string]map[string]struct{}),
	}
}

// Add indexes id under labels, replacing any labels it had before
func (idx *Index) Add(id string, labels Labels) {
	idx.Remove(id)

	copied := make(Labels, len(labels))
	for name, value := range labels {
		copied[name] = value
		if idx.postings[name] == nil {
			idx.postings[name] = make(map[string]map[string]struct{})
		}
		if idx.postings[name][value] == nil {
			idx.postings[name][value] = make(map[string]struct{})
		}
		idx.postings[name][value][id] = struct{}{}
	}
	idx.records[id] = copied
}

// Remove drops id from the index
func (idx *Index) Remove(id string) {
	labels, ok := idx.records[id]
	if !ok {
		return
	}
	for name, value := range labels {
		ids := idx.postings[name][value]
		delete(ids, id)
		if len(ids) == 0 {
			delete(idx.postings[name], value)
		}
		if len(idx.postings[name]) == 0 {
			delete(idx.postings, name)
		}
	}
	delete(idx.records, id)
}

// Get returns the labels of an indexed record
func (idx *Index) Get(id string) (Labels, bool) {
	labels, ok := idx.records[id]
	return labels, ok
}

// Find returns the sorted IDs whose labels match every selector. No
// selectors matches every record.
func (idx *Index) Find(selectors Labels) []string {
	if len(selectors) == 0 {
		result := make([]string, 0, len(idx.records))
		for id := range idx.records {
			result = append(result, id)
		}
		sort.Strings(result)
		return result
	}

	var result []string
	first := true

	for name, value := range selectors {
		ids, ok := idx.postings[name][value]
		if !ok {
			return nil
		}

		sorted := make([]string, 0, len(ids))
		for id := range ids {
			sorted = append(sorted, id)
		}
		sort.Strings(sorted)

		if first {
			result = sorted
			first = false
		} else {
			result = intersect(result, sorted)
		}

		if len(result) == 0 {
			return nil
		}
	}

	return result
}

// Values returns the sorted distinct values indexed for a label
func (idx *Index) Values(name string) []string {
	values := make([]string, 0, len(idx.postings[name]))
	for v := range idx.postings[name] {
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}

// Count returns the number of indexed records
func (idx *Index) Count() int {
	return len(idx.records)
}

// Clear clears the index
func (idx *Index) Clear() {
	idx.records = make(map[string]Labels)
	idx.postings = make(map[string]map[string]map[string]struct{})
}

// intersect merges two sorted slices
func intersect(a, b []string) []string {
	result := make([]string, 0)
	i, j := 0, 0

	for i < len(a) && j < len(b) {
		if a[i] < b[j] {
			i++
		} else if a[i] > b[j] {
			j++
		} else {
			result = append(result, a[i])
			i++
			j++
		}
	}

	return result
}
