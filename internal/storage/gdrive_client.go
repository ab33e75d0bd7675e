package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/codebuildervaibhav/topic-clipper/internal/logger"
)

const folderMimeType = "application/vnd.google-apps.folder"

// ErrNoDriveToken is returned when the OAuth token has not been created yet
var ErrNoDriveToken = errors.New("google drive token not found, run `clipctl drive-auth` first")

// DrivePublisher uploads clips to Google Drive and shares them by link
type DrivePublisher struct {
	service    *drive.Service
	folderName string
	now        func() time.Time

	mu       sync.Mutex // serializes folder lookup/creation
	folderID string
}

// OAuthConfig reads the OAuth client configuration from credentialsFile
func OAuthConfig(credentialsFile string) (*oauth2.Config, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	config, err := google.ConfigFromJSON(b, drive.DriveFileScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}
	return config, nil
}

// NewDrivePublisher creates a publisher from an OAuth client file and a cached token
func NewDrivePublisher(ctx context.Context, credentialsFile, tokenFile, folderName string) (*DrivePublisher, error) {
	config, err := OAuthConfig(credentialsFile)
	if err != nil {
		return nil, err
	}

	tok, err := tokenFromFile(tokenFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoDriveToken
		}
		return nil, fmt.Errorf("unable to read token file: %w", err)
	}

	srv, err := drive.NewService(ctx, option.WithHTTPClient(config.Client(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("unable to create Drive service: %w", err)
	}
	return NewDrivePublisherWithService(srv, folderName), nil
}

// NewDrivePublisherWithService wraps an existing Drive service
func NewDrivePublisherWithService(srv *drive.Service, folderName string) *DrivePublisher {
	return &DrivePublisher{
		service:    srv,
		folderName: folderName,
		now:        time.Now,
	}
}

// AuthCodeURL returns the consent page URL for the offline token flow
func AuthCodeURL(config *oauth2.Config) string {
	return config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
}

// ExchangeAndSaveToken trades an authorization code for a token and caches it in tokenFile
func ExchangeAndSaveToken(ctx context.Context, config *oauth2.Config, code, tokenFile string) error {
	tok, err := config.Exchange(ctx, strings.TrimSpace(code))
	if err != nil {
		return fmt.Errorf("unable to retrieve token from web: %w", err)
	}
	return saveToken(tokenFile, tok)
}

// tokenFromFile retrieves a token from a local file
func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

// saveToken saves a token to a file path
func saveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("unable to create token directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to cache oauth token: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}

// Publish uploads localPath into <folder>/<yyyy>/<mm>/<dd>, makes it readable
// by anyone with the link and returns that link.
func (dp *DrivePublisher) Publish(ctx context.Context, jobID, localPath string) (string, error) {
	folderID, err := dp.ensureDateFolder(ctx, dp.now())
	if err != nil {
		return "", err
	}

	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open clip: %w", err)
	}
	defer f.Close()

	meta := &drive.File{
		Name:        filepath.Base(localPath),
		Parents:     []string{folderID},
		Description: "job " + jobID,
	}
	created, err := dp.service.Files.Create(meta).
		Media(f).
		Fields("id, webViewLink").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to upload clip: %w", err)
	}

	perm := &drive.Permission{Type: "anyone", Role: "reader"}
	if _, err := dp.service.Permissions.Create(created.Id, perm).Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("failed to share clip: %w", err)
	}

	link := created.WebViewLink
	if link == "" {
		link = fmt.Sprintf("https://drive.google.com/file/d/%s/view", created.Id)
	}
	logger.WithJob(jobID).Infof("Uploaded %s to Google Drive", meta.Name)
	return link, nil
}

// ensureDateFolder creates nested root/year/month/day folders
func (dp *DrivePublisher) ensureDateFolder(ctx context.Context, t time.Time) (string, error) {
	dp.mu.Lock()
	defer dp.mu.Unlock()

	if dp.folderID == "" {
		id, err := dp.findOrCreateFolder(ctx, dp.folderName, "")
		if err != nil {
			return "", fmt.Errorf("unable to prepare folder %q: %w", dp.folderName, err)
		}
		dp.folderID = id
	}

	parent := dp.folderID
	for _, name := range []string{
		fmt.Sprintf("%d", t.Year()),
		fmt.Sprintf("%02d", t.Month()),
		fmt.Sprintf("%02d", t.Day()),
	} {
		id, err := dp.findOrCreateFolder(ctx, name, parent)
		if err != nil {
			return "", fmt.Errorf("unable to prepare folder %q: %w", name, err)
		}
		parent = id
	}
	return parent, nil
}

// findOrCreateFolder finds or creates a folder with the given parent. An empty
// parentID searches the whole drive.
func (dp *DrivePublisher) findOrCreateFolder(ctx context.Context, name, parentID string) (string, error) {
	query := fmt.Sprintf("name='%s' and mimeType='%s' and trashed=false", escapeQuery(name), folderMimeType)
	if parentID != "" {
		query += fmt.Sprintf(" and '%s' in parents", parentID)
	}

	r, err := dp.service.Files.List().Q(query).Spaces("drive").Fields("files(id)").Context(ctx).Do()
	if err != nil {
		return "", err
	}
	if len(r.Files) > 0 {
		return r.Files[0].Id, nil
	}

	folder := &drive.File{Name: name, MimeType: folderMimeType}
	if parentID != "" {
		folder.Parents = []string{parentID}
	}
	file, err := dp.service.Files.Create(folder).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", err
	}
	return file.Id, nil
}

func escapeQuery(s string) string {
	return strings.ReplaceAll(s, "'", `\'`)
}
