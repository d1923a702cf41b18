package postgresengine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/loan-ledger-go/loanledger/postgresengine"
)

func Test_NewStore_RejectsNilConnections(t *testing.T) {
	_, err := postgresengine.NewStoreFromPGXPool(nil)
	assert.ErrorIs(t, err, postgresengine.ErrNilDatabaseConnection)

	_, err = postgresengine.NewStoreFromSQLDB(nil)
	assert.ErrorIs(t, err, postgresengine.ErrNilDatabaseConnection)

	_, err = postgresengine.NewStoreFromSQLX(nil)
	assert.ErrorIs(t, err, postgresengine.ErrNilDatabaseConnection)
}

func Test_WithTablePrefix_Validation(t *testing.T) {
	testCases := []struct {
		prefix string
		valid  bool
	}{
		{prefix: "test_", valid: true},
		{prefix: "branch2_", valid: true},
		{prefix: "", valid: false},
		{prefix: "Test_", valid: false},
		{prefix: "test; DROP TABLE loans; --", valid: false},
		{prefix: "9lives_", valid: false},
	}

	for _, tc := range testCases {
		t.Run(tc.prefix, func(t *testing.T) {
			// act
			err := postgresengine.WithTablePrefix(tc.prefix)(&postgresengine.Store{})

			// assert
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, postgresengine.ErrInvalidTablePrefix)
			}
		})
	}
}
