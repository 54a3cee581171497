package upload

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestDecodeBlob(t *testing.T) {
	tests := []struct {
		name string
		blob string
		want string
	}{
		{"bare base64", "aGVsbG8=", "hello"},
		{"data url prefix", "data:image/png;base64,aGVsbG8=", "hello"},
		{"surrounding whitespace", "  aGVsbG8=  ", "hello"},
		{"whitespace before data url prefix", "  data:image/png;base64,aGVsbG8=  ", "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeBlob(tt.blob)
			if err != nil {
				t.Fatal(err)
			}
			if string(got) != tt.want {
				t.Errorf("DecodeBlob() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeBlobInvalid(t *testing.T) {
	if _, err := DecodeBlob("!!!not base64!!!"); err == nil {
		t.Error("expected an error for invalid base64")
	}
}

func TestDiskUploader(t *testing.T) {
	dir := t.TempDir()
	u := NewDiskUploader(dir, "/uploads")

	att, err := u.Upload(context.Background(), []byte("hello"), "messages/abc/0", "photo.png")
	if err != nil {
		t.Fatal(err)
	}

	if att.URL != "/uploads/messages/abc/0.png" {
		t.Errorf("url = %q", att.URL)
	}
	if att.FileName != "photo.png" {
		t.Errorf("file name = %q", att.FileName)
	}
	if att.StorageID != "messages/abc/0" {
		t.Errorf("storage id = %q", att.StorageID)
	}

	data, err := os.ReadFile(filepath.Join(dir, "messages", "abc", "0.png"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello" {
		t.Errorf("stored bytes = %q", data)
	}
}

func TestDiskUploaderNoExtension(t *testing.T) {
	dir := t.TempDir()
	u := NewDiskUploader(dir, "/uploads")

	att, err := u.Upload(context.Background(), []byte("x"), "messages/abc/1", "notes")
	if err != nil {
		t.Fatal(err)
	}
	if att.URL != "/uploads/messages/abc/1" {
		t.Errorf("url = %q", att.URL)
	}
}

func TestDiskUploaderCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	u := NewDiskUploader(t.TempDir(), "/uploads")
	if _, err := u.Upload(ctx, []byte("x"), "k", "f.txt"); err == nil {
		t.Error("expected an error for a cancelled context")
	}
}
