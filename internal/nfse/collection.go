package nfse

import (
	"sync"

	"fiscampos/pkg/models"
)

// Incidence filters accepted by Filter
const (
	FilterAll     = ""
	FilterLocal   = string(models.IncidenceLocal)
	FilterForeign = string(models.IncidenceForeign)
)

// Filter selects records for display. Statistics are never filtered.
type Filter struct {
	Incidence     string // "", "LOCAL" or "FOREIGN"
	ShowCancelled bool
}

// Match reports whether the record passes the filter.
func (f Filter) Match(record models.InvoiceRecord) bool {
	if !f.ShowCancelled && record.IsCancelled() {
		return false
	}
	if f.Incidence != FilterAll && string(record.Incidence) != f.Incidence {
		return false
	}
	return true
}

// Collection is the session's record set. Batches are appended whole, so a
// reader never observes part of a batch.
type Collection struct {
	mu      sync.RWMutex
	records []models.InvoiceRecord
}

// NewCollection creates an empty collection.
func NewCollection() *Collection {
	return &Collection{}
}

// Append adds a batch of records in order.
func (c *Collection) Append(records []models.InvoiceRecord) {
	if len(records) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, records...)
}

// Records returns a copy of all records in insertion order.
func (c *Collection) Records() []models.InvoiceRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.InvoiceRecord, len(c.records))
	copy(out, c.records)
	return out
}

// Len returns the number of records.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// Stats aggregates the whole collection, regardless of any display filter.
func (c *Collection) Stats() models.SummaryStatistics {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Aggregate(c.records)
}

// Filter returns the records matching f, in insertion order.
func (c *Collection) Filter(f Filter) []models.InvoiceRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []models.InvoiceRecord
	for _, record := range c.records {
		if f.Match(record) {
			out = append(out, record)
		}
	}
	return out
}
