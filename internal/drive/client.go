package drive

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"storyforge/internal/logging"
	"storyforge/internal/services"
)

// Config controls uploads for a workspace.
type Config struct {
	Enabled  bool
	FolderID string
}

// Artifact is one local file to upload.
type Artifact struct {
	Name     string
	Path     string
	MIMEType string
}

// File describes an uploaded artifact.
type File struct {
	ID   string
	Name string
	Link string
}

type uploadFunc func(ctx context.Context, artifact Artifact) (File, error)

// Uploader is the surface callers hand artifacts to.
type Uploader interface {
	UploadArtifacts(ctx context.Context, artifacts []Artifact) ([]File, error)
}

// Client uploads run artifacts to a Drive folder.
type Client struct {
	cfg    Config
	svc    *drive.Service
	upload uploadFunc
	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithUploadFunc replaces the per-file upload implementation.
func WithUploadFunc(upload uploadFunc) Option {
	return func(c *Client) { c.upload = upload }
}

// NewClient builds a Drive client from environment credentials.
func NewClient(ctx context.Context, cfg Config, logger *slog.Logger, opts ...Option) (*Client, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	clientID := strings.TrimSpace(os.Getenv("DRIVE_CLIENT_ID"))
	clientSecret := strings.TrimSpace(os.Getenv("DRIVE_CLIENT_SECRET"))
	refreshToken := strings.TrimSpace(os.Getenv("DRIVE_REFRESH_TOKEN"))
	if clientID == "" || clientSecret == "" || refreshToken == "" {
		return nil, services.Wrap(services.ErrConfiguration, "drive", "new client",
			"DRIVE_CLIENT_ID, DRIVE_CLIENT_SECRET, and DRIVE_REFRESH_TOKEN must be set when drive uploads are enabled", nil)
	}

	conf := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{drive.DriveFileScope},
	}
	token := &oauth2.Token{
		RefreshToken: refreshToken,
		Expiry:       time.Now().Add(-time.Hour), // force refresh on first use
	}
	httpClient := oauth2.NewClient(ctx, conf.TokenSource(ctx, token))

	svc, err := drive.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "drive", "new client", "initialize drive service", err)
	}

	client := &Client{
		cfg:    cfg,
		svc:    svc,
		logger: logging.NewComponentLogger(logger, "drive"),
	}
	client.upload = client.uploadOne
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

var _ Uploader = (*Client)(nil)

// UploadArtifacts uploads every artifact in parallel and returns the
// uploaded files in input order. Any single failure fails the batch.
func (c *Client) UploadArtifacts(ctx context.Context, artifacts []Artifact) ([]File, error) {
	if len(artifacts) == 0 {
		return nil, nil
	}

	uploaded := make([]File, len(artifacts))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, artifact := range artifacts {
		group.Go(func() error {
			file, err := c.upload(groupCtx, artifact)
			if err != nil {
				return err
			}
			uploaded[i] = file
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	c.logger.Info("artifacts uploaded",
		logging.Int("count", len(uploaded)),
		logging.String("folder", c.cfg.FolderID))
	return uploaded, nil
}

func (c *Client) uploadOne(ctx context.Context, artifact Artifact) (File, error) {
	handle, err := os.Open(artifact.Path)
	if err != nil {
		return File{}, services.Wrap(services.ErrNotFound, "drive", "upload",
			fmt.Sprintf("open artifact %s", artifact.Name), err)
	}
	defer handle.Close()

	meta := &drive.File{
		Name:     artifact.Name,
		MimeType: artifact.MIMEType,
	}
	if c.cfg.FolderID != "" {
		meta.Parents = []string{c.cfg.FolderID}
	}

	created, err := c.svc.Files.Create(meta).
		Media(handle).
		Context(ctx).
		Fields("id", "webViewLink").
		Do()
	if err != nil {
		return File{}, services.Wrap(services.ErrExternalTool, "drive", "upload",
			fmt.Sprintf("upload %s", artifact.Name), err)
	}

	c.logger.Debug("artifact uploaded",
		logging.String("name", artifact.Name),
		logging.String("id", created.Id))
	return File{ID: created.Id, Name: artifact.Name, Link: created.WebViewLink}, nil
}
