package ofx

import (
	"context"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtobin/pennywise/internal/model"
)

// Sample OFX data for testing.
const sampleBankOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>USD
<BANKACCTFROM>
<BANKID>123456789
<ACCTID>1234567890
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240115120000[0:GMT]
<TRNAMT>-25.50
<FITID>2024011501
<NAME>STARBUCKS STORE #1234
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20240120120000[0:GMT]
<TRNAMT>1250.00
<FITID>2024012001
<NAME>PAYROLL DEPOSIT
</STMTTRN>
<STMTTRN>
<TRNTYPE>CHECK
<DTPOSTED>20240125120000[0:GMT]
<TRNAMT>-500.00
<FITID>2024012501
<CHECKNUM>1234
<NAME>CHECK #1234
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>1000.00
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

const sampleCreditCardOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<CREDITCARDMSGSRSV1>
<CCSTMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<CCSTMTRS>
<CURDEF>USD
<CCACCTFROM>
<ACCTID>4111111111111111
</CCACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240110120000[0:GMT]
<TRNAMT>-45.99
<FITID>CC2024011001
<NAME>AMAZON.COM*RT4Y7HG2
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240115120000[0:GMT]
<TRNAMT>-15.00
<FITID>CC2024011501
<NAME>NETFLIX.COM
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>-500.00
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</CCSTMTRS>
</CCSTMTTRNRS>
</CREDITCARDMSGSRSV1>
</OFX>`

func TestParseFile(t *testing.T) {
	tests := []struct {
		name          string
		ofxData       string
		expectedCount int
		expectedError bool
	}{
		{
			name:          "valid bank statement",
			ofxData:       sampleBankOFX,
			expectedCount: 3,
			expectedError: false,
		},
		{
			name:          "valid credit card statement",
			ofxData:       sampleCreditCardOFX,
			expectedCount: 2,
			expectedError: false,
		},
		{
			name:          "invalid OFX data",
			ofxData:       "not valid OFX",
			expectedCount: 0,
			expectedError: true,
		},
		{
			name:          "empty OFX",
			ofxData:       "",
			expectedCount: 0,
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := NewParser()
			reader := strings.NewReader(tt.ofxData)

			requests, err := parser.ParseFile(context.Background(), reader)

			if tt.expectedError {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Len(t, requests, tt.expectedCount)
			}
		})
	}
}

func TestParseBankTransactions(t *testing.T) {
	parser := NewParser()
	reader := strings.NewReader(sampleBankOFX)

	requests, err := parser.ParseFile(context.Background(), reader)
	require.NoError(t, err)
	require.Len(t, requests, 3)

	// Negative statement amount becomes a debit posting
	req1 := requests[0]
	assert.Equal(t, "STARBUCKS STORE #1234", req1.Title)
	assert.Equal(t, model.TypeDebit, req1.Type)
	assert.Equal(t, model.Cents(2550), req1.Amount)
	// Compare just the date components, ignoring timezone
	assert.Equal(t, 2024, req1.Date.Year())
	assert.Equal(t, time.January, req1.Date.Month())
	assert.Equal(t, 15, req1.Date.Day())

	// Positive statement amount becomes a credit posting
	req2 := requests[1]
	assert.Equal(t, "PAYROLL DEPOSIT", req2.Title)
	assert.Equal(t, model.TypeCredit, req2.Type)
	assert.Equal(t, model.Cents(125000), req2.Amount)

	req3 := requests[2]
	assert.Equal(t, "CHECK #1234", req3.Title)
	assert.Equal(t, model.TypeDebit, req3.Type)
	assert.Equal(t, model.Cents(50000), req3.Amount)
}

func TestParseCreditCardTransactions(t *testing.T) {
	parser := NewParser()
	reader := strings.NewReader(sampleCreditCardOFX)

	requests, err := parser.ParseFile(context.Background(), reader)
	require.NoError(t, err)
	require.Len(t, requests, 2)

	req1 := requests[0]
	assert.Equal(t, "AMAZON.COM*RT4Y7HG2", req1.Title)
	assert.Equal(t, model.TypeDebit, req1.Type)
	assert.Equal(t, model.Cents(4599), req1.Amount)

	req2 := requests[1]
	assert.Equal(t, "NETFLIX.COM", req2.Title)
	assert.Equal(t, model.Cents(1500), req2.Amount)
}

func TestRatToCents(t *testing.T) {
	tests := []struct {
		name     string
		num      int64
		denom    int64
		expected model.Cents
		negative bool
	}{
		{"whole dollars", 25, 1, 2500, false},
		{"two decimals", 2550, 100, 2550, false},
		{"negative", -4599, 100, 4599, true},
		{"third decimal rounds half up", 1235, 1000, 124, false},
		{"third decimal rounds down", 1234, 1000, 123, false},
		{"zero", 0, 1, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cents, negative := ratToCents(big.NewRat(tt.num, tt.denom))
			assert.Equal(t, tt.expected, cents)
			assert.Equal(t, tt.negative, negative)
		})
	}
}

func TestPreprocess(t *testing.T) {
	parser := NewParser()

	t.Run("fixes mixed-case severity", func(t *testing.T) {
		fixed := parser.preprocess("<SEVERITY>Info</SEVERITY>")
		assert.Equal(t, "<SEVERITY>INFO</SEVERITY>", fixed)
	})

	t.Run("closes bare SGML tags", func(t *testing.T) {
		fixed := parser.preprocess("<OFX\n<SIGNONMSGSRSV1\n")
		assert.Contains(t, fixed, "<OFX>")
		assert.Contains(t, fixed, "<SIGNONMSGSRSV1>")
	})
}
