package service

import "errors"

var (
	// ErrNameRequired is returned when a link is created without a display name.
	ErrNameRequired = errors.New("link name is required")
	// ErrInvalidSlug is returned when a requested slug contains characters outside the allowed set.
	ErrInvalidSlug = errors.New("custom slug may only contain letters, numbers, hyphens, and underscores")
	// ErrSlugTaken is returned when a requested slug is already in use.
	ErrSlugTaken = errors.New("custom slug already in use")
	// ErrInvalidURL is returned when a custom destination is not an absolute http/https URL.
	ErrInvalidURL = errors.New("custom url must be an absolute http or https url")
	// ErrLinkNotFound is returned when an identifier does not resolve to a link.
	ErrLinkNotFound = errors.New("link not found")
)
