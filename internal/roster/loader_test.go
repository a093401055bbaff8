package roster

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hondana/buyback-mailer/internal/domain"
)

const sampleCSV = `customer_id,name,email,rank,total_buyback_amount,activity_type,preferred_genre,engagement_balance,quality_tier,last_email_date,open_rate,response_rate
C-001,Tanaka,tanaka@example.com,Gold,120000,buyback-main,mystery,-5,a,2025-12-20,0.45,0.12
C-002,Sato,sato@example.com,silver,30000,purchase-main,history,10,,2025-11-01,1.7,-0.3
,Nameless,x@example.com,bronze,0,purchase-main,,0,B,,0,0
C-003,Suzuki,suzuki@example.com,platinum,800000,both-active,sci-fi,25,D,2025-12-30,0.8,0.4
`

func TestLoadCSV(t *testing.T) {
	customers, err := LoadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, customers, 3, "row without customer_id is dropped")

	c := customers[0]
	assert.Equal(t, "C-001", c.ID)
	assert.Equal(t, "gold", c.Rank)
	assert.Equal(t, 120000, c.TotalBuybackAmount)
	assert.Equal(t, domain.TierA, c.QualityTier)
	assert.Equal(t, -5, c.EngagementBalance)
	assert.Equal(t, 2025, c.LastEmailDate.Year())

	// Rates clamp into [0,1], missing tier defaults to B.
	c2 := customers[1]
	assert.Equal(t, domain.TierB, c2.QualityTier)
	assert.Equal(t, 1.0, c2.OpenRate)
	assert.Equal(t, 0.0, c2.ResponseRate)

	c3 := customers[2]
	assert.Equal(t, domain.TierD, c3.QualityTier)
	assert.True(t, c2.LastGiftDate.IsZero())
}

func TestLoadCSVMissingIDColumn(t *testing.T) {
	_, err := LoadCSV(strings.NewReader("name,email\nTanaka,t@example.com\n"))
	require.Error(t, err)
}

func TestLoadJSON(t *testing.T) {
	payload := `[
		{"customer_id":"C-010","name":"Mori","rank":"GOLD","quality_tier":"c","open_rate":2.5},
		{"customer_id":"C-011","name":"Abe","quality_tier":"?"}
	]`
	customers, err := LoadJSON(strings.NewReader(payload))
	require.NoError(t, err)
	require.Len(t, customers, 2)

	assert.Equal(t, "gold", customers[0].Rank)
	assert.Equal(t, domain.TierC, customers[0].QualityTier)
	assert.Equal(t, 1.0, customers[0].OpenRate)
	assert.Equal(t, domain.TierB, customers[1].QualityTier)
}

func TestLoadJSONMalformed(t *testing.T) {
	_, err := LoadJSON(strings.NewReader("{not json"))
	require.Error(t, err)
}
