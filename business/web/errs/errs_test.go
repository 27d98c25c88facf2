package errs_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/ardanlabs/provenance/business/web/errs"
	"github.com/ardanlabs/provenance/foundation/blockchain/database"
	"github.com/ardanlabs/provenance/foundation/blockchain/sealer"
	"github.com/stretchr/testify/assert"
)

func TestFromLedger(t *testing.T) {
	tt := []struct {
		name   string
		err    error
		status int
	}{
		{name: "not found", err: fmt.Errorf("block 9: %w", database.ErrNotFound), status: http.StatusNotFound},
		{name: "invalid", err: fmt.Errorf("%w: missing kind", database.ErrInvalidTransaction), status: http.StatusBadRequest},
		{name: "rejected", err: fmt.Errorf("blk[2]: bad: %w", sealer.ErrRejected), status: http.StatusNotAcceptable},
		{name: "integrity", err: &database.IntegrityError{Number: 3}, status: http.StatusConflict},
	}

	for _, tst := range tt {
		t.Run(tst.name, func(t *testing.T) {
			te := errs.GetTrusted(errs.FromLedger(tst.err))
			if assert.NotNil(t, te) {
				assert.Equal(t, tst.status, te.Status)
				assert.ErrorIs(t, te, tst.err)
			}
		})
	}

	other := errors.New("disk full")
	assert.False(t, errs.IsTrusted(errs.FromLedger(other)))
	assert.Nil(t, errs.FromLedger(nil))
}
