// Package ingest maps OFX/QFX bank statements into transactions so
// externally exported statements can be scored alongside generated
// data.
package ingest

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aclindsa/ofxgo"

	"github.com/hollisreid/fraudwatch/internal/model"
)

// OFXParser parses OFX/QFX statement files into transactions for a
// known local account. OFX carries no channel or region, so the
// channel is inferred from the OFX transaction type and the region
// comes from the owning account's customer record at insert time.
type OFXParser struct {
	accountID int64
}

// NewOFXParser creates a parser attaching parsed rows to accountID.
func NewOFXParser(accountID int64) *OFXParser {
	return &OFXParser{accountID: accountID}
}

// ParseFile parses an OFX/QFX file and returns transactions.
func (p *OFXParser) ParseFile(reader io.Reader) ([]model.Transaction, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(preprocess(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	var txns []model.Transaction
	var statements int

	for _, msg := range resp.Bank {
		stmt, ok := msg.(*ofxgo.StatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		statements++
		for _, ofxTx := range stmt.BankTranList.Transactions {
			txns = append(txns, p.convert(ofxTx))
		}
	}

	for _, msg := range resp.CreditCard {
		stmt, ok := msg.(*ofxgo.CCStatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		statements++
		for _, ofxTx := range stmt.BankTranList.Transactions {
			txns = append(txns, p.convert(ofxTx))
		}
	}

	slog.Info("Parsed OFX file",
		"transactions", len(txns),
		"statements", statements)
	return txns, nil
}

// preprocess fixes common formatting issues in SGML-style OFX files
// before handing them to the parser.
func preprocess(content string) string {
	return strings.TrimLeft(content, " \t\r\n")
}

// convert maps one OFX transaction onto the scoring pipeline's model.
func (p *OFXParser) convert(ofxTx ofxgo.Transaction) model.Transaction {
	amount, _ := ofxTx.TrnAmt.Float64()

	txnType := model.TypeDeposit
	if amount < 0 {
		amount = -amount
		txnType = model.TypeWithdraw
	}

	return model.Transaction{
		AccountID: p.accountID,
		Time:      ofxTx.DtPosted.Time,
		Type:      txnType,
		Amount:    amount,
		Channel:   channelFor(ofxTx.TrnType),
		Location:  location(ofxTx),
	}
}

// channelFor infers the transaction channel from the OFX type code
// (e.g. ATM, POS, CHECK, DEP). The ofxgo enum type is unexported, so
// the value is taken as a Stringer.
func channelFor(trnType fmt.Stringer) model.Channel {
	switch fmt.Sprintf("%v", trnType) {
	case "ATM", "CASH":
		return model.ChannelATM
	case "POS", "PAYMENT", "DIRECTDEBIT", "REPEATPMT", "XFER":
		return model.ChannelOnline
	case "CHECK", "DEP", "DIRECTDEP":
		return model.ChannelBranch
	default:
		return model.ChannelOnline
	}
}

// location uses the payee city when the statement carries one.
func location(ofxTx ofxgo.Transaction) string {
	if ofxTx.Payee != nil && ofxTx.Payee.City != "" {
		return string(ofxTx.Payee.City)
	}
	return ""
}
