package drive

import (
	"context"
	"errors"
	"testing"

	"storyforge/internal/logging"
	"storyforge/internal/services"
)

func setTestCredentials(t *testing.T) {
	t.Helper()
	t.Setenv("DRIVE_CLIENT_ID", "client-id")
	t.Setenv("DRIVE_CLIENT_SECRET", "client-secret")
	t.Setenv("DRIVE_REFRESH_TOKEN", "refresh-token")
}

func TestNewClientRequiresCredentials(t *testing.T) {
	t.Setenv("DRIVE_CLIENT_ID", "")
	t.Setenv("DRIVE_CLIENT_SECRET", "")
	t.Setenv("DRIVE_REFRESH_TOKEN", "")

	_, err := NewClient(context.Background(), Config{Enabled: true}, logging.NewNop())
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("error = %v, want a configuration error", err)
	}
}

func TestUploadArtifactsPreservesOrder(t *testing.T) {
	setTestCredentials(t)

	client, err := NewClient(context.Background(), Config{Enabled: true, FolderID: "folder"}, logging.NewNop(),
		WithUploadFunc(func(ctx context.Context, artifact Artifact) (File, error) {
			return File{ID: "id-" + artifact.Name, Name: artifact.Name}, nil
		}))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	artifacts := []Artifact{
		{Name: "video.mp4", Path: "/out/video.mp4", MIMEType: "video/mp4"},
		{Name: "thumbnail.png", Path: "/out/thumbnail.png", MIMEType: "image/png"},
		{Name: "metadata.json", Path: "/out/metadata.json", MIMEType: "application/json"},
	}
	uploaded, err := client.UploadArtifacts(context.Background(), artifacts)
	if err != nil {
		t.Fatalf("UploadArtifacts failed: %v", err)
	}
	if len(uploaded) != 3 {
		t.Fatalf("uploaded %d files, want 3", len(uploaded))
	}
	for i, artifact := range artifacts {
		if uploaded[i].Name != artifact.Name {
			t.Fatalf("uploaded[%d] = %q, want %q", i, uploaded[i].Name, artifact.Name)
		}
		if uploaded[i].ID != "id-"+artifact.Name {
			t.Fatalf("uploaded[%d] id = %q", i, uploaded[i].ID)
		}
	}
}

func TestUploadArtifactsFailsBatchOnSingleError(t *testing.T) {
	setTestCredentials(t)

	uploadErr := errors.New("quota exceeded")
	client, err := NewClient(context.Background(), Config{Enabled: true}, logging.NewNop(),
		WithUploadFunc(func(ctx context.Context, artifact Artifact) (File, error) {
			if artifact.Name == "thumbnail.png" {
				return File{}, uploadErr
			}
			return File{Name: artifact.Name}, nil
		}))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	_, err = client.UploadArtifacts(context.Background(), []Artifact{
		{Name: "video.mp4"},
		{Name: "thumbnail.png"},
	})
	if !errors.Is(err, uploadErr) {
		t.Fatalf("error = %v, want the upload failure", err)
	}
}

func TestUploadArtifactsEmptyBatch(t *testing.T) {
	setTestCredentials(t)

	client, err := NewClient(context.Background(), Config{Enabled: true}, logging.NewNop())
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	uploaded, err := client.UploadArtifacts(context.Background(), nil)
	if err != nil || uploaded != nil {
		t.Fatalf("empty batch: files=%v err=%v", uploaded, err)
	}
}
