package google

import (
	"fmt"
	"strings"
	"time"

	"secondbrain/internal/core"
)

// journalHeader is written to the first row of an empty journal sheet.
var journalHeader = []string{"ID", "Date", "Description", "Amount", "Account", "Category", "Budget"}

func rowValues(tx core.Transaction) []any {
	return []any{
		tx.ID,
		tx.Date.UTC().Format(time.DateOnly),
		tx.Description,
		tx.Amount.String(),
		tx.AccountID,
		tx.CategoryID,
		tx.LinkedBudgetID,
	}
}

// parseJournal converts a values matrix (as returned by the Sheets API) into
// transactions. Columns are located by header so they may be reordered in
// the sheet. Rows that cannot be parsed are skipped.
func parseJournal(values [][]interface{}) ([]core.Transaction, error) {
	if len(values) == 0 {
		return nil, nil
	}
	headers := toStrings(values[0])
	col := map[string]int{}
	var missing []string
	for _, h := range journalHeader {
		col[h] = indexOf(headers, h)
		if col[h] == -1 && h != "Budget" {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("unexpected journal header: missing %s; got headers=%v", strings.Join(missing, ","), headers)
	}

	var out []core.Transaction
	for i := 1; i < len(values); i++ {
		row := toStrings(values[i])
		id := safeGet(row, col["ID"])
		if id == "" {
			continue
		}
		date, err := core.ParseDate(safeGet(row, col["Date"]))
		if err != nil {
			continue
		}
		cents, err := core.ParseSignedDecimalToCents(safeGet(row, col["Amount"]))
		if err != nil {
			continue
		}
		out = append(out, core.Transaction{
			ID:             id,
			Description:    safeGet(row, col["Description"]),
			Amount:         core.Cents(cents),
			AccountID:      safeGet(row, col["Account"]),
			CategoryID:     safeGet(row, col["Category"]),
			Date:           date.Noon(),
			LinkedBudgetID: safeGet(row, col["Budget"]),
		})
	}
	return out, nil
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(target)) {
			return i
		}
	}
	return -1
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
