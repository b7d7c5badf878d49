package mongostore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thelibrary/moderation-backend/internal/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestReportQuery_EmptyFilterMatchesAll(t *testing.T) {
	assert.Empty(t, reportQuery(store.ReportFilter{}))
}

func TestReportQuery_ReasonIsCaseInsensitiveAndAnchored(t *testing.T) {
	q := reportQuery(store.ReportFilter{
		TargetID:   "u-1",
		TargetType: "user",
		Reason:     "  Nombre (inapropiado) ",
	})

	assert.Equal(t, "u-1", q["target_id"])
	assert.Equal(t, "user", q["target_type"])

	re, ok := q["reason"].(primitive.Regex)
	require.True(t, ok)
	assert.Equal(t, "i", re.Options)
	assert.Equal(t, `^\s*Nombre \(inapropiado\)\s*$`, re.Pattern)
}
