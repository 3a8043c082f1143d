package service

import (
	"github.com/tagwardenapp/tagwarden-server/internal/errors"
	"github.com/tagwardenapp/tagwarden-server/internal/store"
)

// errTranslate lifts raw store sentinels into the coded error taxonomy so
// handlers map them to HTTP statuses without reaching into the store package.
func errTranslate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrTagNotFound):
		return errors.NotFound("tag not found").WithCause(err)
	case errors.Is(err, store.ErrTagExists):
		return errors.AlreadyExists("tag already exists").WithCause(err)
	case errors.Is(err, store.ErrEdgeNotFound):
		return errors.NotFound("hierarchy edge not found").WithCause(err)
	case errors.Is(err, store.ErrEdgeExists):
		return errors.AlreadyExists("hierarchy edge already exists").WithCause(err)
	case errors.Is(err, store.ErrVersionNotFound):
		return errors.NotFound("version not found").WithCause(err)
	case errors.Is(err, store.ErrVersionConflict):
		return errors.Conflict("version number already taken").WithCause(err)
	case errors.Is(err, store.ErrPermissionNotFound):
		return errors.NotFound("permission not found").WithCause(err)
	case errors.Is(err, store.ErrNotFound):
		return errors.NotFound("not found").WithCause(err)
	case errors.Is(err, store.ErrAlreadyExists):
		return errors.AlreadyExists("already exists").WithCause(err)
	default:
		return err
	}
}
