package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	ds "github.com/oaiiae/contacts-edit/datastores"
	"github.com/oaiiae/contacts-edit/session"
	"github.com/oaiiae/contacts-edit/validate"
)

type handler[I, O any] = func(context.Context, *I) (*O, error)

// handlerWithErrorHandler passes errors from handler to do, then maps them
// with [statusError]. do sees the error as the handler returned it.
func handlerWithErrorHandler[I, O any](handler handler[I, O], do func(context.Context, error)) handler[I, O] {
	return func(ctx context.Context, i *I) (*O, error) {
		o, err := handler(ctx, i)
		if err != nil {
			if do != nil {
				do(ctx, err)
			}
			err = statusError(err)
		}
		return o, err
	}
}

func opErrors(codes ...int) func(*huma.Operation) {
	return func(o *huma.Operation) { o.Errors = codes }
}

func opStatus(code int) func(*huma.Operation) {
	return func(o *huma.Operation) { o.DefaultStatus = code }
}

// statusError maps store, session and validation errors to huma status
// errors. Other errors are returned as is and end up as 500.
func statusError(err error) error {
	var verr *validate.ValidationError
	switch {
	case errors.As(err, &verr):
		return huma.Error422UnprocessableEntity(verr.Error(), &huma.ErrorDetail{
			Message:  verr.Error(),
			Location: "body." + verr.Field,
			Value:    verr.Value,
		})

	case errors.Is(err, ds.ErrObjectNotFound):
		return huma.Error404NotFound("id not found", err)

	case errors.Is(err, session.ErrNotFound):
		return huma.Error404NotFound("session not found", err)

	case errors.Is(err, session.ErrTooManySessions):
		return huma.Error503ServiceUnavailable("too many open sessions", err)

	case errors.Is(err, ds.ErrInvalidID):
		return huma.Error422UnprocessableEntity("invalid id", err)

	default:
		return err
	}
}
