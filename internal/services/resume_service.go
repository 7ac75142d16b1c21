package services

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/yoockh/jobboard/internal/auth"
	"github.com/yoockh/jobboard/internal/models"
	pgrepo "github.com/yoockh/jobboard/internal/repositories/postgres"
	"github.com/yoockh/jobboard/internal/storage"
	"github.com/yoockh/jobboard/internal/utils"
)

const (
	MaxResumeSize   = 5 << 20
	resumeMIME      = "application/pdf"
	resumeURLExpiry = 15 * time.Minute
)

// ResumePrefix is the object key prefix every resume of userID lives under.
func ResumePrefix(userID string) string { return "resumes/" + userID + "/" }

type ResumeService interface {
	Upload(ctx context.Context, actor *models.User, fileName string, size int64, mimeType string, r io.Reader) (*models.ResumeFile, error)
	Latest(ctx context.Context, userID string) (*models.ResumeFile, error)
	SignedURL(ctx context.Context, actor *models.User, applicationID string) (string, error)
}

type resumeService struct {
	repo  pgrepo.ResumeFileRepository
	store storage.ObjectStore
	apps  ApplicationService
	now   func() time.Time
}

func NewResumeService(repo pgrepo.ResumeFileRepository, store storage.ObjectStore, apps ApplicationService) ResumeService {
	return &resumeService{
		repo:  repo,
		store: store,
		apps:  apps,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *resumeService) Upload(ctx context.Context, actor *models.User, fileName string, size int64, mimeType string, r io.Reader) (*models.ResumeFile, error) {
	const op = "ResumeService.Upload"

	if err := requirePermission(op, actor, auth.PermApplyJobs); err != nil {
		return nil, err
	}
	if s.store == nil {
		return nil, utils.E(utils.CodeUnavailable, op, "File storage is not configured", nil)
	}
	if size <= 0 || size > MaxResumeSize {
		return nil, utils.E(utils.CodeInvalidArgument, op, "Resume must be a PDF up to 5 MB", nil)
	}
	if !strings.EqualFold(mimeType, resumeMIME) && !strings.EqualFold(path.Ext(fileName), ".pdf") {
		return nil, utils.E(utils.CodeInvalidArgument, op, "Resume must be a PDF up to 5 MB", nil)
	}

	key := ResumeObjectName(actor.ID, fileName)
	stored, err := s.store.Upload(ctx, key, resumeMIME, io.LimitReader(r, MaxResumeSize))
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "Failed to upload resume", err)
	}

	row := &models.ResumeFile{
		ID:       uuid.NewString(),
		UserID:   actor.ID,
		FileName: fileName,
		FilePath: stored,
		FileSize: int(size),
		MimeType: resumeMIME,
		UploadAt: s.now(),
	}
	if err := s.repo.Insert(ctx, row); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "Failed to save resume", err)
	}
	return row, nil
}

func (s *resumeService) Latest(ctx context.Context, userID string) (*models.ResumeFile, error) {
	const op = "ResumeService.Latest"

	f, err := s.repo.LatestByUser(ctx, userID)
	if err != nil {
		if utils.CodeOf(err) == utils.CodeNotFound {
			return nil, utils.E(utils.CodeNotFound, op, "No resume uploaded", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "Failed to load resume", err)
	}
	return f, nil
}

// SignedURL returns a short-lived download link for the resume attached to
// an application. Access follows ApplicationService.Get.
func (s *resumeService) SignedURL(ctx context.Context, actor *models.User, applicationID string) (string, error) {
	const op = "ResumeService.SignedURL"

	a, err := s.apps.Get(ctx, actor, applicationID)
	if err != nil {
		return "", err
	}
	if a.ResumePath == "" {
		return "", utils.E(utils.CodeNotFound, op, "No resume attached", nil)
	}
	if s.store == nil {
		return "", utils.E(utils.CodeUnavailable, op, "File storage is not configured", nil)
	}
	u, err := s.store.SignedGetURL(ctx, a.ResumePath, resumeURLExpiry)
	if err != nil {
		return "", utils.E(utils.CodeUnavailable, op, "Failed to sign resume link", err)
	}
	return u, nil
}

// ResumeObjectName builds resumes/<user>/<uuid>-<slug>.pdf.
func ResumeObjectName(userID, fileName string) string {
	base := strings.TrimSuffix(path.Base(fileName), path.Ext(fileName))
	s := slug.Make(base)
	if s == "" {
		s = "resume"
	}
	return ResumePrefix(userID) + uuid.NewString() + "-" + s + ".pdf"
}

// SniffPDF reads the first 512 bytes of r to check for a PDF signature and
// returns a reader that replays them in front of the rest.
func SniffPDF(r io.Reader) (io.Reader, bool) {
	head := make([]byte, 512)
	n, _ := io.ReadFull(r, head)
	head = head[:n]
	return io.MultiReader(bytes.NewReader(head), r), http.DetectContentType(head) == resumeMIME
}
