package mid

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/ardanlabs/provenance/business/sys/metrics"
	"github.com/ardanlabs/provenance/business/sys/validate"
	"github.com/ardanlabs/provenance/business/web/errs"
	"github.com/ardanlabs/provenance/foundation/web"
)

// Metrics updates program counters.
func Metrics(m *metrics.Metrics) web.Middleware {

	// This is the actual middleware function to be executed.
	mw := func(handler web.Handler) web.Handler {

		// Create the handler that will be attached in the middleware chain.
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			// Call the next handler.
			err := handler(ctx, w, r)

			v, verr := web.GetValues(ctx)
			if verr != nil {
				return err
			}

			// The error middleware hasn't responded yet when an error is
			// returned so take the status from the error.
			status := v.StatusCode
			switch {
			case err != nil && errs.IsTrusted(err):
				status = errs.GetTrusted(err).Status
			case err != nil && validate.IsFieldErrors(err):
				status = http.StatusBadRequest
			case err != nil:
				status = http.StatusInternalServerError
			case status == 0:
				status = http.StatusOK
			}

			since := time.Since(v.Now)

			m.Request(r.Method, strconv.Itoa(status), since.Seconds())

			// Increment the errors counter if an error occurred on this request.
			if err != nil {
				m.Error()
			}

			// Return the error so it can be handled further up the chain.
			return err
		}

		return h
	}

	return mw
}
