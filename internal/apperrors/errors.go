package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound represents an error when a requested resource is not found.
type ErrNotFound struct {
	Resource string
	ID       interface{}
}

// Error implements the error interface.
func (e *ErrNotFound) Error() string {
	if e.ID != nil {
		return fmt.Sprintf("%s with ID %v not found", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Is allows for error checking with errors.Is().
func (e *ErrNotFound) Is(target error) bool {
	_, ok := target.(*ErrNotFound)
	return ok
}

// NewNotFoundError creates a new ErrNotFound.
func NewNotFoundError(resource string, id interface{}) *ErrNotFound {
	return &ErrNotFound{
		Resource: resource,
		ID:       id,
	}
}

// ErrUnknownCategory is returned when a category value is neither movie nor tv.
type ErrUnknownCategory struct {
	Value string
}

// Error implements the error interface.
func (e *ErrUnknownCategory) Error() string {
	return fmt.Sprintf("unknown category %q", e.Value)
}

// Is allows for error checking with errors.Is().
func (e *ErrUnknownCategory) Is(target error) bool {
	_, ok := target.(*ErrUnknownCategory)
	return ok
}

// TagRejection is implemented by every validation failure of the tag editor.
// Reason is a short human-readable explanation suitable for a toast.
type TagRejection interface {
	error
	Reason() string
}

// ErrEmptyTag is returned when a tag is empty after normalization.
type ErrEmptyTag struct{}

func (e *ErrEmptyTag) Error() string  { return "tag must not be empty" }
func (e *ErrEmptyTag) Reason() string { return "标签名称不能为空" }

// Is allows for error checking with errors.Is().
func (e *ErrEmptyTag) Is(target error) bool {
	_, ok := target.(*ErrEmptyTag)
	return ok
}

// ErrInvalidTag is returned when a tag is too long or contains forbidden characters.
type ErrInvalidTag struct {
	Tag    string
	Detail string
}

func (e *ErrInvalidTag) Error() string {
	return fmt.Sprintf("invalid tag %q: %s", e.Tag, e.Detail)
}

func (e *ErrInvalidTag) Reason() string { return "标签名称不能包含特殊字符或过长" }

// Is allows for error checking with errors.Is().
func (e *ErrInvalidTag) Is(target error) bool {
	_, ok := target.(*ErrInvalidTag)
	return ok
}

// ErrDuplicateTag is returned when the tag already exists, compared case-insensitively.
type ErrDuplicateTag struct {
	Tag      string
	Existing string
}

func (e *ErrDuplicateTag) Error() string {
	return fmt.Sprintf("tag %q already exists as %q", e.Tag, e.Existing)
}

func (e *ErrDuplicateTag) Reason() string { return "标签已存在" }

// Is allows for error checking with errors.Is().
func (e *ErrDuplicateTag) Is(target error) bool {
	_, ok := target.(*ErrDuplicateTag)
	return ok
}

// ErrSentinelTag is returned when deleting the featured tag.
type ErrSentinelTag struct {
	Tag string
}

func (e *ErrSentinelTag) Error() string {
	return fmt.Sprintf("tag %q cannot be deleted", e.Tag)
}

func (e *ErrSentinelTag) Reason() string { return "热门标签不能删除" }

// Is allows for error checking with errors.Is().
func (e *ErrSentinelTag) Is(target error) bool {
	_, ok := target.(*ErrSentinelTag)
	return ok
}

// ErrTagNotFound is returned when deleting a tag that is not in the list.
type ErrTagNotFound struct {
	Tag string
}

func (e *ErrTagNotFound) Error() string {
	return fmt.Sprintf("tag %q not found", e.Tag)
}

func (e *ErrTagNotFound) Reason() string { return "标签不存在" }

// Is allows for error checking with errors.Is().
func (e *ErrTagNotFound) Is(target error) bool {
	_, ok := target.(*ErrTagNotFound)
	return ok
}

// ErrPersist is returned when a tag mutation was applied in memory but could
// not be written to storage. The in-memory list is not rolled back.
type ErrPersist struct {
	Err error
}

func (e *ErrPersist) Error() string {
	return fmt.Sprintf("failed to save tags: %v", e.Err)
}

func (e *ErrPersist) Unwrap() error { return e.Err }

// Is allows for error checking with errors.Is().
func (e *ErrPersist) Is(target error) bool {
	_, ok := target.(*ErrPersist)
	return ok
}

// ErrInvalidEnvelope is returned when the mirror proxy response cannot be unwrapped.
type ErrInvalidEnvelope struct {
	Field string
	Err   error
}

func (e *ErrInvalidEnvelope) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid mirror envelope field %q: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("mirror envelope has no usable %q field", e.Field)
}

func (e *ErrInvalidEnvelope) Unwrap() error { return e.Err }

// Is allows for error checking with errors.Is().
func (e *ErrInvalidEnvelope) Is(target error) bool {
	_, ok := target.(*ErrInvalidEnvelope)
	return ok
}

// ErrFetchFailed is returned when both the primary and the mirror request failed.
// Unwrap yields the mirror error, which is the one surfaced to callers.
type ErrFetchFailed struct {
	URL        string
	PrimaryErr error
	MirrorErr  error
}

func (e *ErrFetchFailed) Error() string {
	return fmt.Sprintf("fetching %s failed: %v (primary: %v)", e.URL, e.MirrorErr, e.PrimaryErr)
}

func (e *ErrFetchFailed) Unwrap() error { return e.MirrorErr }

// Is allows for error checking with errors.Is().
func (e *ErrFetchFailed) Is(target error) bool {
	_, ok := target.(*ErrFetchFailed)
	return ok
}

// ErrUnexpectedStatus is returned for non-2xx upstream responses.
type ErrUnexpectedStatus struct {
	StatusCode int
}

func (e *ErrUnexpectedStatus) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.StatusCode)
}

// Is allows for error checking with errors.Is().
func (e *ErrUnexpectedStatus) Is(target error) bool {
	_, ok := target.(*ErrUnexpectedStatus)
	return ok
}

// ErrInvalidPayload is returned when an upstream response is valid JSON but
// does not have the expected shape.
type ErrInvalidPayload struct {
	Kind string
	Err  error
}

func (e *ErrInvalidPayload) Error() string {
	return fmt.Sprintf("failed to decode %s: %v", e.Kind, e.Err)
}

func (e *ErrInvalidPayload) Unwrap() error { return e.Err }

// Is allows for error checking with errors.Is().
func (e *ErrInvalidPayload) Is(target error) bool {
	_, ok := target.(*ErrInvalidPayload)
	return ok
}

// ErrRedirectNotAllowed is returned when an asset request is redirected to a
// location outside the allow list.
type ErrRedirectNotAllowed struct {
	URL string
}

func (e *ErrRedirectNotAllowed) Error() string {
	return fmt.Sprintf("redirect to %s is not allowed", e.URL)
}

// Is allows for error checking with errors.Is().
func (e *ErrRedirectNotAllowed) Is(target error) bool {
	_, ok := target.(*ErrRedirectNotAllowed)
	return ok
}

// ErrAssetTooLarge is returned when an asset body exceeds Limit bytes.
type ErrAssetTooLarge struct {
	Limit int64
}

func (e *ErrAssetTooLarge) Error() string {
	return fmt.Sprintf("asset exceeds %d bytes", e.Limit)
}

// Is allows for error checking with errors.Is().
func (e *ErrAssetTooLarge) Is(target error) bool {
	_, ok := target.(*ErrAssetTooLarge)
	return ok
}

// RejectionReason returns the user-facing reason of a tag rejection, or "" if
// err is not one.
func RejectionReason(err error) string {
	var rejection TagRejection
	if errors.As(err, &rejection) {
		return rejection.Reason()
	}
	return ""
}
