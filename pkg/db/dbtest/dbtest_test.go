package dbtest

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beveragedistro/ops-backend/pkg/db"
	"github.com/beveragedistro/ops-backend/pkg/db/models"
)

func TestOpenEnforcesForeignKeys(t *testing.T) {
	conn := Open(t)

	err := conn.Create(&models.OrderLine{OrderID: uuid.New(), ProductKey: "GHOST", Quantity: 1}).Error
	require.Error(t, err)
	assert.True(t, db.IsForeignKeyViolation(err))

	var n int64
	require.NoError(t, conn.Model(&models.OrderLine{}).Count(&n).Error)
	assert.Zero(t, n)
}
