package util

import "strings"

const (
	FileKindImage = "imagem"
	FileKindVideo = "video"
	FileKindPDF   = "pdf"
	FileKindOther = "ficheiro"
)

// FileKind 根据附件的 MIME 类型或扩展名归类，用于课时附件展示
func FileKind(tipo, name string) string {
	tipo = strings.ToLower(tipo)
	switch {
	case IsImage(tipo):
		return FileKindImage
	case IsVideo(tipo):
		return FileKindVideo
	case tipo == MimePDF:
		return FileKindPDF
	}

	ext := strings.ToLower(name)
	if i := strings.LastIndex(ext, "."); i >= 0 {
		ext = ext[i:]
	} else {
		return FileKindOther
	}
	for _, v := range AllowedVideoExtensions {
		if ext == v {
			return FileKindVideo
		}
	}
	switch ext {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp", ".svg":
		return FileKindImage
	case ".pdf":
		return FileKindPDF
	}
	return FileKindOther
}

// IsImage 检测是否为图片
func IsImage(mimeType string) bool {
	return strings.HasPrefix(mimeType, MimeImage)
}

// IsVideo 检测是否为视频
func IsVideo(mimeType string) bool {
	return strings.HasPrefix(mimeType, MimeVideo) || mimeType == "application/x-mpegURL"
}
