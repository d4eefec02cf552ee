package client

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// MaxAttachmentSize caps files attached to a chat message.
const MaxAttachmentSize = 5 << 20

const attachmentFrame = "-------------------"

var (
	ErrAttachmentTooLarge    = errors.New("el archivo es demasiado grande (máx 5MB)")
	ErrUnsupportedAttachment = errors.New("solo se admiten archivos de texto (.txt, .md, .csv, .json) o imágenes (.png, .jpg, .webp)")
)

var (
	textExtensions  = map[string]bool{".txt": true, ".md": true, ".csv": true, ".json": true}
	imageExtensions = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".webp": true}
)

// ComposeAttachment turns a file into the text of a user message. Text files are inlined;
// images are only announced by name since the model is never sent binary content.
func ComposeAttachment(name string, content []byte) (string, error) {
	if len(content) > MaxAttachmentSize {
		return "", ErrAttachmentTooLarge
	}
	ext := strings.ToLower(filepath.Ext(name))
	base := filepath.Base(name)

	var body string
	switch {
	case textExtensions[ext]:
		if !utf8.Valid(content) {
			return "", fmt.Errorf("%s: %w", base, ErrUnsupportedAttachment)
		}
		body = strings.TrimSpace(string(content))
	case imageExtensions[ext]:
		body = fmt.Sprintf("[IMAGEN SUBIDA: %s] (contenido no analizado, describí lo que muestra si es relevante)", base)
	default:
		return "", fmt.Errorf("%s: %w", base, ErrUnsupportedAttachment)
	}

	return fmt.Sprintf("[DOCUMENTO ADJUNTO: %s]\n%s\n%s\n%s\nPor favor analiza este documento y extrae la información financiera relevante para mi diagnóstico.",
		base, attachmentFrame, body, attachmentFrame), nil
}

// ReadAttachment checks the size before reading path and composes it.
func ReadAttachment(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.Size() > MaxAttachmentSize {
		return "", ErrAttachmentTooLarge
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return ComposeAttachment(path, content)
}
