package memory

import (
	"context"
	"sync"

	"secondbrain/internal/core"
	"secondbrain/internal/sheets"
)

// Journal is an in-process mirror used when no spreadsheet is configured.
// Rows keep their first-write order, like appended spreadsheet rows.
type Journal struct {
	mu    sync.Mutex
	order []string
	rows  map[string]core.Transaction
}

var _ sheets.Journal = (*Journal)(nil)

func New() *Journal {
	return &Journal{rows: map[string]core.Transaction{}}
}

func (j *Journal) Upsert(_ context.Context, tx core.Transaction) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if _, ok := j.rows[tx.ID]; !ok {
		j.order = append(j.order, tx.ID)
	}
	j.rows[tx.ID] = tx
	return nil
}

// Delete removes the row for id. Unknown ids are ignored.
func (j *Journal) Delete(_ context.Context, id string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if _, ok := j.rows[id]; !ok {
		return nil
	}
	delete(j.rows, id)
	for i, v := range j.order {
		if v == id {
			j.order = append(j.order[:i], j.order[i+1:]...)
			break
		}
	}
	return nil
}

func (j *Journal) List(_ context.Context) ([]core.Transaction, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]core.Transaction, 0, len(j.order))
	for _, id := range j.order {
		out = append(out, j.rows[id])
	}
	return out, nil
}
