package service

import apperrors "github.com/target/lab-portal/internal/errors"

// errNotFoundPublic hides unpublished content from anonymous readers.
var errNotFoundPublic = apperrors.NotFound("Resource not found")

// errNotOwner is returned when an engineer touches someone else's project.
var errNotOwner = apperrors.Forbidden("You can only manage your own projects")

func isNotFound(err error) bool { return apperrors.IsNotFound(err) }
