// Package ofx reads bank and credit card statements in OFX/QFX format and
// turns them into entries the wallet can import.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/aclindsa/ofxgo"

	"secondbrain/internal/core"
)

var (
	severityPattern = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	// SGML exports sometimes leave opening tags without their bracket.
	openTagPattern = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// Entry is one posted statement line. Amount follows the ledger sign
// convention: positive is money leaving the account.
type Entry struct {
	FITID       string
	AccountID   string
	Posted      core.Date
	Description string
	Amount      core.Money
	Type        string
}

// Kind reports whether the entry is spending or income.
func (e Entry) Kind() core.TransactionKind {
	if e.Amount.IsNegative() {
		return core.KindIncome
	}
	return core.KindExpense
}

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) preprocess(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")
	content = severityPattern.ReplaceAllStringFunc(content, strings.ToUpper)
	return openTagPattern.ReplaceAllString(content, "$1>")
}

// Parse reads every bank and credit card statement in r. Statements that
// fail to convert are logged and skipped.
func (p *Parser) Parse(ctx context.Context, r io.Reader) ([]Entry, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(p.preprocess(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	var entries []Entry
	var bankStmts, ccStmts int

	for _, msg := range resp.Bank {
		stmt, ok := msg.(*ofxgo.StatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		bankStmts++
		converted, err := p.convertAll(stmt.BankTranList.Transactions, string(stmt.BankAcctFrom.AcctID))
		if err != nil {
			slog.WarnContext(ctx, "Failed to process bank statement",
				"account", stmt.BankAcctFrom.AcctID, "error", err)
			continue
		}
		entries = append(entries, converted...)
	}

	for _, msg := range resp.CreditCard {
		stmt, ok := msg.(*ofxgo.CCStatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		ccStmts++
		converted, err := p.convertAll(stmt.BankTranList.Transactions, string(stmt.CCAcctFrom.AcctID))
		if err != nil {
			slog.WarnContext(ctx, "Failed to process credit card statement",
				"account", stmt.CCAcctFrom.AcctID, "error", err)
			continue
		}
		entries = append(entries, converted...)
	}

	slog.InfoContext(ctx, "Parsed OFX file",
		"entries", len(entries),
		"bank_statements", bankStmts,
		"cc_statements", ccStmts)
	return entries, nil
}

func (p *Parser) convertAll(txs []ofxgo.Transaction, accountID string) ([]Entry, error) {
	out := make([]Entry, 0, len(txs))
	for _, tx := range txs {
		e, err := p.convert(tx, accountID)
		if err != nil {
			return nil, fmt.Errorf("transaction %s: %w", tx.FiTID, err)
		}
		out = append(out, e)
	}
	return out, nil
}

func (p *Parser) convert(tx ofxgo.Transaction, accountID string) (Entry, error) {
	// OFX amounts are negative for debits; the ledger stores spending as positive.
	cents, err := core.ParseSignedDecimalToCents(tx.TrnAmt.Rat.FloatString(2))
	if err != nil {
		return Entry{}, err
	}
	posted := tx.DtPosted.Time.UTC()
	return Entry{
		FITID:       string(tx.FiTID),
		AccountID:   accountID,
		Posted:      core.NewDate(posted.Year(), int(posted.Month()), posted.Day()),
		Description: description(tx),
		Amount:      core.Cents(-cents),
		Type:        tx.TrnType.String(),
	}, nil
}

// description picks the most readable label of a statement line.
func description(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return strings.TrimSpace(string(tx.Payee.Name))
	}
	name := strings.TrimSpace(string(tx.Name))
	if tx.Memo != "" && (name == "" || isGeneric(name)) {
		name = strings.TrimSpace(string(tx.Memo))
	}
	upper := strings.ToUpper(name)
	for _, prefix := range []string{
		"POS PURCHASE ",
		"PURCHASE AUTHORIZED ON ",
		"DEBIT CARD PURCHASE ",
		"ACH DEBIT ",
		"CHECK CARD ",
		"VISA PURCHASE ",
		"MC PURCHASE ",
		"DEBIT PURCHASE ",
	} {
		if strings.HasPrefix(upper, prefix) {
			name = name[len(prefix):]
			break
		}
	}
	// Drop a leading MM/DD stamp.
	if len(name) > 5 && name[2] == '/' && name[5] == ' ' {
		name = strings.TrimSpace(name[6:])
	}
	if name == "" {
		name = tx.TrnType.String()
	}
	return name
}

func isGeneric(name string) bool {
	switch strings.ToUpper(name) {
	case "DEBIT", "CREDIT", "PURCHASE", "PAYMENT", "POS TRANSACTION", "CARD PURCHASE":
		return true
	}
	return false
}
