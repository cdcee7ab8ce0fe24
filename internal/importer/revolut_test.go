package importer

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRevolutParser_Parse(t *testing.T) {
	data, err := os.ReadFile("../../testdata/revolut.csv")
	require.NoError(t, err)

	p := &RevolutParser{}
	result, err := p.Parse(strings.NewReader(string(data)))
	require.NoError(t, err)
	require.Len(t, result.Records, 4)
	assert.Empty(t, result.Problems)

	first := result.Records[0]
	assert.Equal(t, 1, first.Seq)
	assert.Equal(t, "2025-01-04", first.Date)
	assert.Equal(t, "-12.34", first.Amount)
	assert.Equal(t, "EUR", first.Currency)
	assert.Equal(t, "Grocery Store", first.Payee)
	assert.Equal(t, "CARD_PAYMENT", first.TypeCode)
	assert.False(t, first.Pending)

	topup := result.Records[1]
	assert.Equal(t, "TOPUP", topup.TypeCode)
	assert.Equal(t, "500.00", topup.Amount)

	withFee := result.Records[2]
	assert.Equal(t, "0.10", withFee.Fee)

	pending := result.Records[3]
	assert.True(t, pending.Pending)
	assert.Equal(t, 4, pending.Seq)
}

func TestRevolutParser_MissingColumn(t *testing.T) {
	p := &RevolutParser{}
	_, err := p.Parse(strings.NewReader("Type,Description,Amount\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestRevolutParser_MalformedRecordDoesNotAbort(t *testing.T) {
	csv := "Type,Product,Started Date,Completed Date,Description,Amount,Fee,Currency,State,Balance\n" +
		"CARD_PAYMENT,Current,2025-01-03 10:00:00,2025-01-03 12:00:00,First,-1.00,0.00,EUR,COMPLETED,10.00\n" +
		"CARD_PAYMENT,Current,2025-01-04 10:00:00,2025-01-04 12:00:00,Broken,NOTANUMBER,0.00,EUR,COMPLETED,10.00\n" +
		"CARD_PAYMENT,Current,2025-01-05 10:00:00,2025-01-05 12:00:00,Third,-2.00,0.00,EUR,COMPLETED,8.00\n"

	p := &RevolutParser{}
	result, err := p.Parse(strings.NewReader(csv))
	require.NoError(t, err)

	require.Len(t, result.Records, 2)
	assert.Equal(t, "First", result.Records[0].Payee)
	assert.Equal(t, "Third", result.Records[1].Payee)

	require.Len(t, result.Problems, 1)
	assert.Equal(t, 2, result.Problems[0].Record)
	assert.ErrorIs(t, result.Problems[0], ErrMalformedRecord)
}

func TestRevolutParser_ShortCompletedDate(t *testing.T) {
	csv := "Type,Product,Started Date,Completed Date,Description,Amount,Fee,Currency,State,Balance\n" +
		"CARD_PAYMENT,Current,2025-01-03 10:00:00,bad,Desc,-1.00,0.00,EUR,COMPLETED,10.00\n"

	p := &RevolutParser{}
	result, err := p.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Empty(t, result.Records)
	require.Len(t, result.Problems, 1)
	assert.ErrorIs(t, result.Problems[0], ErrMalformedRecord)
}

func TestRevolutParser_EmptyFile(t *testing.T) {
	p := &RevolutParser{}
	result, err := p.Parse(strings.NewReader("Type,Product,Started Date,Completed Date,Description,Amount,Fee,Currency,State,Balance\n"))
	require.NoError(t, err)
	assert.Empty(t, result.Records)
	assert.Empty(t, result.Problems)
}
