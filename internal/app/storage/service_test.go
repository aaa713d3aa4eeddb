package storage

import (
	"strings"
	"testing"

	"hubchat/internal/pkg/errs"
)

func TestAvatarKeyValidUpload(t *testing.T) {
	key, customErr := AvatarKey("user-123", "image/png", 1024)
	if customErr != nil {
		t.Fatalf("AvatarKey failed: %v", customErr)
	}

	if !strings.HasPrefix(key, "avatars/user-123/") {
		t.Fatalf("key %q not under the user's avatar prefix", key)
	}
	if !strings.HasSuffix(key, ".png") {
		t.Fatalf("key %q does not carry the extension for image/png", key)
	}
}

func TestAvatarKeyUniquePerCall(t *testing.T) {
	a, _ := AvatarKey("user-123", "image/png", 1024)
	b, _ := AvatarKey("user-123", "image/png", 1024)
	if a == b {
		t.Fatalf("two uploads produced the same key %q", a)
	}
}

func TestAvatarKeyRejectsBadInput(t *testing.T) {
	cases := []struct {
		name     string
		mimeType string
		fileSize int64
		wantCode int
	}{
		{"disallowed type", "application/pdf", 1024, errs.ErrFileTypeInvalid},
		{"zero size", "image/png", 0, errs.ErrFileSizeTooLarge},
		{"over limit", "image/png", MaxAvatarSize + 1, errs.ErrFileSizeTooLarge},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, customErr := AvatarKey("user-123", tc.mimeType, tc.fileSize)
			if customErr == nil {
				t.Fatal("invalid upload accepted")
			}
			if customErr.Code != tc.wantCode {
				t.Fatalf("code = %d, want %d", customErr.Code, tc.wantCode)
			}
		})
	}
}

func TestAttachmentKeyAcceptsWiderTypes(t *testing.T) {
	key, customErr := AttachmentKey("user-123", "application/pdf", MaxAttachmentSize)
	if customErr != nil {
		t.Fatalf("AttachmentKey failed: %v", customErr)
	}
	if !strings.HasPrefix(key, "attachments/user-123/") || !strings.HasSuffix(key, ".pdf") {
		t.Fatalf("unexpected key %q", key)
	}
}
