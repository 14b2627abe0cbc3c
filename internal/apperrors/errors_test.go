// Package apperrors tests verify the custom error types, their Error()
// messages, Is() matching semantics, unwrapping, and the rejection reasons
// surfaced to the widget.
package apperrors

import (
	"errors"
	"fmt"
	"testing"
)

// ---------------------------------------------------------------------------
// ErrNotFound
// ---------------------------------------------------------------------------

func TestErrNotFound_Error(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		err      *ErrNotFound
		expected string
	}{
		{
			name:     "with string ID",
			err:      &ErrNotFound{Resource: "storage key", ID: "userMovieTags"},
			expected: "storage key with ID userMovieTags not found",
		},
		{
			name:     "with int ID",
			err:      &ErrNotFound{Resource: "page", ID: 42},
			expected: "page with ID 42 not found",
		},
		{
			name:     "with nil ID",
			err:      &ErrNotFound{Resource: "subject", ID: nil},
			expected: "subject not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestErrNotFound_Is(t *testing.T) {
	t.Parallel()
	err := NewNotFoundError("storage key", "userTvTags")

	t.Run("matches another ErrNotFound", func(t *testing.T) {
		if !errors.Is(err, &ErrNotFound{Resource: "other"}) {
			t.Error("expected errors.Is to match *ErrNotFound regardless of field values")
		}
	})

	t.Run("does not match ErrTagNotFound", func(t *testing.T) {
		if errors.Is(err, &ErrTagNotFound{}) {
			t.Error("expected errors.Is not to match *ErrTagNotFound")
		}
	})

	t.Run("matches through double wrapping", func(t *testing.T) {
		wrapped := fmt.Errorf("mid: %w", fmt.Errorf("inner: %w", err))
		if !errors.Is(wrapped, &ErrNotFound{}) {
			t.Error("expected errors.Is to match *ErrNotFound through double wrapping")
		}
	})
}

// ---------------------------------------------------------------------------
// Tag rejections
// ---------------------------------------------------------------------------

func TestTagRejections(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		err        error
		target     error
		wantReason string
		wantMsg    string
	}{
		{
			name:       "empty",
			err:        &ErrEmptyTag{},
			target:     &ErrEmptyTag{},
			wantReason: "标签名称不能为空",
			wantMsg:    "tag must not be empty",
		},
		{
			name:       "duplicate",
			err:        &ErrDuplicateTag{Tag: "drama", Existing: "Drama"},
			target:     &ErrDuplicateTag{},
			wantReason: "标签已存在",
			wantMsg:    `tag "drama" already exists as "Drama"`,
		},
		{
			name:       "sentinel",
			err:        &ErrSentinelTag{Tag: "热门"},
			target:     &ErrSentinelTag{},
			wantReason: "热门标签不能删除",
			wantMsg:    `tag "热门" cannot be deleted`,
		},
		{
			name:       "not found",
			err:        &ErrTagNotFound{Tag: "x"},
			target:     &ErrTagNotFound{},
			wantReason: "标签不存在",
			wantMsg:    `tag "x" not found`,
		},
		{
			name:       "invalid",
			err:        &ErrInvalidTag{Tag: "a\tb", Detail: "contains control characters"},
			target:     &ErrInvalidTag{},
			wantReason: "标签名称不能包含特殊字符或过长",
			wantMsg:    `invalid tag "a\tb": contains control characters`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			wrapped := fmt.Errorf("editor: %w", tt.err)
			if !errors.Is(wrapped, tt.target) {
				t.Errorf("expected errors.Is to match %T through wrapping", tt.target)
			}
			if got := RejectionReason(wrapped); got != tt.wantReason {
				t.Errorf("RejectionReason() = %q, want %q", got, tt.wantReason)
			}
		})
	}
}

func TestRejectionReason_NonRejection(t *testing.T) {
	t.Parallel()
	if got := RejectionReason(errors.New("boom")); got != "" {
		t.Errorf("Expected empty reason for plain error, got %q", got)
	}
	if got := RejectionReason(&ErrPersist{Err: errors.New("quota")}); got != "" {
		t.Errorf("Expected empty reason for persist error, got %q", got)
	}
}

// ---------------------------------------------------------------------------
// Wrapping errors
// ---------------------------------------------------------------------------

func TestErrPersist_Unwrap(t *testing.T) {
	t.Parallel()
	cause := errors.New("quota exceeded")
	err := &ErrPersist{Err: cause}

	if !errors.Is(err, cause) {
		t.Error("expected ErrPersist to unwrap to its cause")
	}
	if !errors.Is(fmt.Errorf("outer: %w", err), &ErrPersist{}) {
		t.Error("expected errors.Is to match *ErrPersist through wrapping")
	}
	if err.Error() != "failed to save tags: quota exceeded" {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

func TestErrFetchFailed_UnwrapsMirrorError(t *testing.T) {
	t.Parallel()
	primary := &ErrUnexpectedStatus{StatusCode: 503}
	mirror := &ErrInvalidEnvelope{Field: "contents"}
	err := &ErrFetchFailed{URL: "https://example.com", PrimaryErr: primary, MirrorErr: mirror}

	if !errors.Is(err, &ErrInvalidEnvelope{}) {
		t.Error("expected ErrFetchFailed to unwrap to the mirror error")
	}
	if errors.Is(err, &ErrUnexpectedStatus{}) {
		t.Error("expected the primary error not to be part of the unwrap chain")
	}
	if !errors.Is(err, &ErrFetchFailed{}) {
		t.Error("expected errors.Is to match *ErrFetchFailed")
	}
}

func TestErrInvalidEnvelope_Error(t *testing.T) {
	t.Parallel()
	if got := (&ErrInvalidEnvelope{Field: "contents"}).Error(); got != `mirror envelope has no usable "contents" field` {
		t.Errorf("unexpected message without cause: %q", got)
	}
	cause := errors.New("unexpected end of JSON input")
	err := &ErrInvalidEnvelope{Field: "contents", Err: cause}
	if !errors.Is(err, cause) {
		t.Error("expected ErrInvalidEnvelope to unwrap to its cause")
	}
}

func TestErrUnknownCategory(t *testing.T) {
	t.Parallel()
	err := &ErrUnknownCategory{Value: "anime"}
	if err.Error() != `unknown category "anime"` {
		t.Errorf("unexpected message: %q", err.Error())
	}
	if !errors.Is(fmt.Errorf("parse: %w", err), &ErrUnknownCategory{}) {
		t.Error("expected errors.Is to match *ErrUnknownCategory through wrapping")
	}
}

func TestErrInvalidPayload_Unwrap(t *testing.T) {
	t.Parallel()
	cause := errors.New("cannot unmarshal string into subjects")
	err := fmt.Errorf("recommend: %w", &ErrInvalidPayload{Kind: "subjects", Err: cause})

	if !errors.Is(err, &ErrInvalidPayload{}) {
		t.Error("expected errors.Is to match *ErrInvalidPayload through wrapping")
	}
	if !errors.Is(err, cause) {
		t.Error("expected ErrInvalidPayload to unwrap to its cause")
	}
}

func TestProxyErrors(t *testing.T) {
	t.Parallel()
	redirect := &ErrRedirectNotAllowed{URL: "http://127.0.0.1/admin"}
	if redirect.Error() != "redirect to http://127.0.0.1/admin is not allowed" {
		t.Errorf("unexpected message: %q", redirect.Error())
	}
	if !errors.Is(fmt.Errorf("fetch: %w", redirect), &ErrRedirectNotAllowed{}) {
		t.Error("expected errors.Is to match *ErrRedirectNotAllowed through wrapping")
	}

	tooLarge := &ErrAssetTooLarge{Limit: 1024}
	if tooLarge.Error() != "asset exceeds 1024 bytes" {
		t.Errorf("unexpected message: %q", tooLarge.Error())
	}
	if errors.Is(tooLarge, &ErrRedirectNotAllowed{}) {
		t.Error("expected distinct proxy errors not to match each other")
	}
}
