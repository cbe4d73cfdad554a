package services

import (
	"bytes"
	"fmt"
	"io"
	"math/rand"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"tunilearn/backend/utils"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
)

const (
	MaxImageSize = 5 << 20
	MaxPDFSize   = 10 << 20

	MaxImageDimension = 1600

	PublicUploadPrefix = "/uploads"
	resourcesDir       = "resources"

	MsgFileTooLarge    = "File too large. Maximum size is 10MB for PDFs and 5MB for images."
	MsgTooManyFiles    = "Too many files. Maximum is 1 thumbnail and 10 resource files."
	MsgUnexpectedField = "Unexpected file field."
	MsgOnlyPDF         = "Only PDF files are allowed"
	MsgOnlyImages      = "Only image files (JPG, PNG, GIF, WebP) are allowed"
	MsgOnlyResources   = "Only PDF and image files are allowed for resources"
)

var (
	imageExts  = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}
	imageMIMEs = []string{"image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp"}
	pdfExts    = []string{".pdf"}
	pdfMIMEs   = []string{"application/pdf"}
)

// uploadRule describes one kind of accepted file.
type uploadRule struct {
	prefix   string
	subdir   string
	maxSize  int64
	exts     []string
	mimes    []string
	message  string
	resample bool
}

var (
	thumbnailRule = uploadRule{prefix: "thumb", maxSize: MaxImageSize, exts: imageExts, mimes: imageMIMEs, message: MsgOnlyImages, resample: true}
	profileRule   = uploadRule{prefix: "profile", maxSize: MaxImageSize, exts: imageExts, mimes: imageMIMEs, message: MsgOnlyImages, resample: true}
	pdfRule       = uploadRule{prefix: "pdf", subdir: resourcesDir, maxSize: MaxPDFSize, exts: pdfExts, mimes: pdfMIMEs, message: MsgOnlyPDF}
	resourceRule  = uploadRule{
		prefix:  "resource",
		subdir:  resourcesDir,
		maxSize: MaxPDFSize,
		exts:    append(append([]string{}, pdfExts...), imageExts...),
		mimes:   append(append([]string{}, pdfMIMEs...), imageMIMEs...),
		message: MsgOnlyResources,
	}
)

// UploadService stores validated uploads under Dir and returns their public URLs.
type UploadService struct {
	Dir string
}

func NewUploadService(dir string) *UploadService {
	return &UploadService{Dir: dir}
}

// Init creates the upload directories.
func (s *UploadService) Init() error {
	if err := os.MkdirAll(filepath.Join(s.Dir, resourcesDir), 0o755); err != nil {
		return errors.Wrap(err, "create upload directories")
	}
	return nil
}

func (s *UploadService) SaveThumbnail(fh *multipart.FileHeader) (string, error) {
	return s.save(fh, thumbnailRule)
}

func (s *UploadService) SaveProfileImage(fh *multipart.FileHeader) (string, error) {
	return s.save(fh, profileRule)
}

func (s *UploadService) SavePDF(fh *multipart.FileHeader) (string, error) {
	return s.save(fh, pdfRule)
}

func (s *UploadService) SaveResource(fh *multipart.FileHeader) (string, error) {
	return s.save(fh, resourceRule)
}

// Remove deletes a file previously returned by one of the Save methods.
func (s *UploadService) Remove(publicURL string) error {
	rel := strings.TrimPrefix(publicURL, PublicUploadPrefix+"/")
	if rel == publicURL || rel == "" || strings.Contains(rel, "..") {
		return nil
	}
	err := os.Remove(filepath.Join(s.Dir, filepath.FromSlash(rel)))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "remove upload")
	}
	return nil
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}

// GenerateFilename builds "{prefix}-{unixMillis}-{random}{ext}". The client name only contributes its extension.
func GenerateFilename(prefix, originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	return fmt.Sprintf("%s-%d-%d%s", prefix, time.Now().UnixMilli(), rand.Int63n(1_000_000_000), ext)
}

func (s *UploadService) save(fh *multipart.FileHeader, rule uploadRule) (string, error) {
	if fh == nil {
		return "", utils.NewBadRequest("No file uploaded")
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	declared := strings.ToLower(strings.TrimSpace(strings.SplitN(fh.Header.Get("Content-Type"), ";", 2)[0]))
	if !contains(rule.exts, ext) || !contains(rule.mimes, declared) {
		return "", utils.NewBadRequest(rule.message)
	}
	if fh.Size > rule.maxSize {
		return "", utils.NewBadRequest(MsgFileTooLarge)
	}

	src, err := fh.Open()
	if err != nil {
		return "", errors.Wrap(err, "open upload")
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, rule.maxSize+1))
	if err != nil {
		return "", errors.Wrap(err, "read upload")
	}
	if int64(len(data)) > rule.maxSize {
		return "", utils.NewBadRequest(MsgFileTooLarge)
	}

	detected := mimetype.Detect(data)
	if !matchesAny(detected, rule.mimes) {
		return "", utils.NewBadRequest(rule.message)
	}

	name := GenerateFilename(rule.prefix, fh.Filename)
	dir := filepath.Join(s.Dir, rule.subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "create upload directory")
	}
	dst := filepath.Join(dir, name)

	if rule.resample && (detected.Is("image/jpeg") || detected.Is("image/png")) {
		if err := saveResampled(data, dst); err != nil {
			return "", err
		}
	} else if err := os.WriteFile(dst, data, 0o644); err != nil {
		return "", errors.Wrap(err, "write upload")
	}

	return path.Join(PublicUploadPrefix, rule.subdir, name), nil
}

func matchesAny(detected *mimetype.MIME, mimes []string) bool {
	for _, m := range mimes {
		if detected.Is(m) {
			return true
		}
	}
	return false
}

// saveResampled decodes the image, fits it into MaxImageDimension square and writes it.
func saveResampled(data []byte, dst string) error {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return utils.NewBadRequest("Invalid image file")
	}
	b := img.Bounds()
	if b.Dx() > MaxImageDimension || b.Dy() > MaxImageDimension {
		img = imaging.Fit(img, MaxImageDimension, MaxImageDimension, imaging.Lanczos)
		if err := imaging.Save(img, dst); err != nil {
			return errors.Wrap(err, "save image")
		}
		return nil
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return errors.Wrap(err, "write upload")
	}
	return nil
}
