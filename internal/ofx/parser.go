// Package ofx turns OFX/QFX bank statements into ledger posting requests.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"regexp"
	"strings"

	"github.com/aclindsa/ofxgo"

	"github.com/mtobin/pennywise/internal/ledger"
	"github.com/mtobin/pennywise/internal/model"
)

// Parser implements OFX/QFX file parsing.
type Parser struct{}

// NewParser creates a new OFX parser.
func NewParser() *Parser {
	return &Parser{}
}

// preprocess fixes common formatting issues in OFX files.
func (p *Parser) preprocess(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")

	// Mixed-case SEVERITY values (should be INFO, WARN, or ERROR)
	severityRegex := regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)

	// Missing closing angle brackets in SGML-style OFX files
	tagFixRegex := regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
	content = tagFixRegex.ReplaceAllString(content, "$1>")

	return content
}

// ParseFile parses an OFX/QFX statement into posting requests. Statement
// amounts are signed: positive becomes a credit posting, negative a debit.
// Zero-amount entries are dropped.
func (p *Parser) ParseFile(_ context.Context, reader io.Reader) ([]ledger.PostRequest, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(p.preprocess(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	var requests []ledger.PostRequest
	var bankStmts, ccStmts int

	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			bankStmts++
			if stmt.BankTranList == nil {
				continue
			}
			for _, ofxTx := range stmt.BankTranList.Transactions {
				if req, ok := p.convert(ofxTx); ok {
					requests = append(requests, req)
				}
			}
		}
	}

	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			ccStmts++
			if stmt.BankTranList == nil {
				continue
			}
			for _, ofxTx := range stmt.BankTranList.Transactions {
				if req, ok := p.convert(ofxTx); ok {
					requests = append(requests, req)
				}
			}
		}
	}

	slog.Info("Parsed OFX file",
		"total_transactions", len(requests),
		"bank_statements", bankStmts,
		"cc_statements", ccStmts)

	return requests, nil
}

// convert maps one OFX transaction onto a posting request.
func (p *Parser) convert(ofxTx ofxgo.Transaction) (ledger.PostRequest, bool) {
	amount, negative := ratToCents(&ofxTx.TrnAmt.Rat)
	if amount == 0 {
		return ledger.PostRequest{}, false
	}

	typ := model.TypeCredit
	if negative {
		typ = model.TypeDebit
	}

	title := p.title(ofxTx)
	if title == "" {
		title = "imported " + strings.ToLower(fmt.Sprintf("%v", ofxTx.TrnType))
	}

	return ledger.PostRequest{
		Title:  title,
		Amount: amount,
		Type:   typ,
		Date:   ofxTx.DtPosted.Time,
		Notes:  string(ofxTx.Memo),
	}, true
}

// title prefers the payee name over the raw NAME field.
func (p *Parser) title(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return string(tx.Payee.Name)
	}
	return strings.TrimSpace(string(tx.Name))
}

// ratToCents converts an exact OFX amount to cents with half-up rounding,
// returning the magnitude and whether the original was negative.
func ratToCents(r *big.Rat) (model.Cents, bool) {
	negative := r.Sign() < 0

	scaled := new(big.Rat).Abs(r)
	scaled.Mul(scaled, big.NewRat(100, 1))

	// Half-up rounding: floor(x + 1/2)
	scaled.Add(scaled, big.NewRat(1, 2))
	cents := new(big.Int).Quo(scaled.Num(), scaled.Denom())

	return model.Cents(cents.Int64()), negative
}
