package domain

import (
	"errors"
)

var (
	MessageSuccessGetTags      = "success get tags"
	MessageSuccessGetTagDetail = "success get tag detail"

	MessageFailedGetTags      = "failed to get tags"
	MessageFailedGetTagDetail = "failed to get tag detail"

	ErrTagNotFound = errors.New("tag not found")
)

type TagResponse struct {
	ID    uint    `json:"id"`
	Name  string  `json:"name"`
	Color *string `json:"color"`
	Slug  *string `json:"slug"`
}
