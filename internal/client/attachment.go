package client

import (
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/MKhiriev/go-chat-keeper/models"
)

// MaxAttachmentSize bounds files inlined as base64.
const MaxAttachmentSize = 20 << 20

// LoadAttachment turns an http(s) URL or a local file path into an
// attachment. Files are inlined as base64.
func LoadAttachment(ref string) (models.Attachment, error) {
	if u, err := url.Parse(ref); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		mimeType := mime.TypeByExtension(filepath.Ext(u.Path))
		kind, ok := attachmentType(mimeType)
		if !ok {
			kind = models.AttachmentImage
		}
		return models.Attachment{
			Type:     kind,
			URL:      ref,
			MIMEType: mimeType,
			FileName: filepath.Base(u.Path),
		}, nil
	}

	info, err := os.Stat(ref)
	if err != nil {
		return models.Attachment{}, fmt.Errorf("%w: %w", ErrUnsupportedAttachment, err)
	}
	if info.Size() > MaxAttachmentSize {
		return models.Attachment{}, fmt.Errorf("%w: %s is larger than %d bytes", ErrUnsupportedAttachment, ref, MaxAttachmentSize)
	}

	raw, err := os.ReadFile(ref)
	if err != nil {
		return models.Attachment{}, fmt.Errorf("%w: %w", ErrUnsupportedAttachment, err)
	}

	mimeType := mime.TypeByExtension(filepath.Ext(ref))
	if mimeType == "" {
		mimeType = http.DetectContentType(raw)
	}
	kind, ok := attachmentType(mimeType)
	if !ok {
		return models.Attachment{}, fmt.Errorf("%w: %s has type %s", ErrUnsupportedAttachment, ref, mimeType)
	}

	return models.Attachment{
		Type:     kind,
		Data:     base64.StdEncoding.EncodeToString(raw),
		MIMEType: mimeType,
		FileName: filepath.Base(ref),
		FileSize: info.Size(),
	}, nil
}

func attachmentType(mimeType string) (models.AttachmentType, bool) {
	major, _, _ := strings.Cut(mimeType, "/")
	switch major {
	case "image":
		return models.AttachmentImage, true
	case "audio":
		return models.AttachmentAudio, true
	case "video":
		return models.AttachmentVideo, true
	default:
		return "", false
	}
}
