package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// DefaultTemplateExt is used when a template name carries no extension.
const DefaultTemplateExt = ".xlsx"

// TemplateSource opens spreadsheet templates by name.
type TemplateSource interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// TemplateSourceFunc adapts a function to TemplateSource.
type TemplateSourceFunc func(ctx context.Context, name string) (io.ReadCloser, error)

// Open calls fn.
func (fn TemplateSourceFunc) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	return fn(ctx, name)
}

// TemplateExt returns the extension of a template name, including the dot.
func TemplateExt(name string) string {
	ext := path.Ext(strings.TrimSpace(name))
	if ext == "" || ext == "." {
		return DefaultTemplateExt
	}
	return strings.ToLower(ext)
}

// CleanTemplateName normalizes a template name into a slash separated relative path.
// Names that resolve outside the template root are rejected.
func CleanTemplateName(name string) (string, error) {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	if name == "" {
		return "", NewError(KindTemplateUnavailable, "template name is required", nil)
	}
	clean := path.Clean("/" + name)
	rel := strings.TrimPrefix(clean, "/")
	if rel == "" || rel == "." {
		return "", NewError(KindTemplateUnavailable, fmt.Sprintf("invalid template name %q", name), nil)
	}
	if strings.Contains(name, "..") && clean != "/"+name {
		return "", NewError(KindTemplateUnavailable, fmt.Sprintf("template name %q escapes root", name), nil)
	}
	return rel, nil
}

// DirTemplates reads templates from a directory on disk.
type DirTemplates struct {
	Root string
}

// NewDirTemplates creates a directory source. An empty root uses DefaultTemplateDir.
func NewDirTemplates(root string) DirTemplates {
	if strings.TrimSpace(root) == "" {
		root = DefaultTemplateDir
	}
	return DirTemplates{Root: root}
}

// Open opens the named template.
func (d DirTemplates) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	target, err := d.Path(name)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(target)
	if err != nil {
		return nil, templateOpenError(name, err)
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, templateOpenError(name, err)
	}
	if info.IsDir() {
		_ = file.Close()
		return nil, NewError(KindTemplateUnavailable, fmt.Sprintf("template %q is a directory", name), nil)
	}
	return file, nil
}

// Path resolves a template name to its location on disk.
func (d DirTemplates) Path(name string) (string, error) {
	rel, err := CleanTemplateName(name)
	if err != nil {
		return "", err
	}
	rootDir := d.Root
	if strings.TrimSpace(rootDir) == "" {
		rootDir = DefaultTemplateDir
	}
	root, err := filepath.Abs(rootDir)
	if err != nil {
		return "", NewError(KindTemplateUnavailable, "template root", err)
	}
	target := filepath.Join(root, filepath.FromSlash(rel))
	if !strings.HasPrefix(target, root+string(os.PathSeparator)) {
		return "", NewError(KindTemplateUnavailable, fmt.Sprintf("template name %q escapes root", name), nil)
	}
	return target, nil
}

// FSTemplates reads templates from an fs.FS, for example an embed.FS.
type FSTemplates struct {
	FS fs.FS
}

// Open opens the named template.
func (f FSTemplates) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.FS == nil {
		return nil, NewError(KindTemplateUnavailable, "template filesystem is nil", nil)
	}
	rel, err := CleanTemplateName(name)
	if err != nil {
		return nil, err
	}
	file, err := f.FS.Open(rel)
	if err != nil {
		return nil, templateOpenError(name, err)
	}
	if info, err := file.Stat(); err == nil && info.IsDir() {
		_ = file.Close()
		return nil, NewError(KindTemplateUnavailable, fmt.Sprintf("template %q is a directory", name), nil)
	}
	return file, nil
}

func templateOpenError(name string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return NewError(KindTemplateUnavailable, fmt.Sprintf("template %q not found", name), err)
	}
	return NewError(KindTemplateUnavailable, fmt.Sprintf("template %q unreadable", name), err)
}
