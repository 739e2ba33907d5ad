package ingest

import (
	"strings"
)

// DefaultAllowedTypes 只接受图片。
var DefaultAllowedTypes = []string{"image/*"}

var suffixes = map[string]string{
	"image/jpeg":               "jpg",
	"image/pjpeg":              "jpg",
	"image/png":                "png",
	"image/gif":                "gif",
	"image/webp":               "webp",
	"image/svg+xml":            "svg",
	"image/bmp":                "bmp",
	"image/x-ms-bmp":           "bmp",
	"image/tiff":               "tiff",
	"image/x-icon":             "ico",
	"image/vnd.microsoft.icon": "ico",
	"image/avif":               "avif",
	"image/heic":               "heic",
}

// TypePolicy 判断声明的内容类型是否属于允许的类型族。
// 模式可以是精确类型（"image/png"）或类型族（"image/*"）。
type TypePolicy struct {
	exact    map[string]struct{}
	families []string
}

func NewTypePolicy(patterns []string) *TypePolicy {
	p := &TypePolicy{exact: make(map[string]struct{})}
	for _, raw := range patterns {
		pattern := normalizeContentType(raw)
		if pattern == "" {
			continue
		}
		if family, ok := strings.CutSuffix(pattern, "/*"); ok {
			p.families = append(p.families, family+"/")
			continue
		}
		p.exact[pattern] = struct{}{}
	}
	return p
}

func (p *TypePolicy) Allows(contentType string) bool {
	ct := normalizeContentType(contentType)
	if ct == "" || !strings.Contains(ct, "/") {
		return false
	}
	if _, ok := p.exact[ct]; ok {
		return true
	}
	for _, family := range p.families {
		if strings.HasPrefix(ct, family) && len(ct) > len(family) {
			return true
		}
	}
	return false
}

// SuffixFor 返回规范文件名使用的扩展名（不含点）。
func SuffixFor(contentType string) string {
	ct := normalizeContentType(contentType)
	if s, ok := suffixes[ct]; ok {
		return s
	}
	_, sub, _ := strings.Cut(ct, "/")
	sub = strings.TrimPrefix(sub, "x-")
	if i := strings.IndexByte(sub, '+'); i > 0 {
		sub = sub[:i]
	}
	var b strings.Builder
	for _, r := range sub {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "bin"
	}
	return b.String()
}

// normalizeContentType 去掉参数并转为小写："Image/PNG; q=1" -> "image/png"。
func normalizeContentType(ct string) string {
	if i := strings.IndexByte(ct, ';'); i != -1 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}
