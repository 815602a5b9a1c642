package export

import (
	"strings"

	"github.com/google/uuid"
)

// NewFilename returns a random download name: a dashless UUID plus the template extension.
func NewFilename(templateName string) string {
	return filenameFor(uuid.NewString(), templateName)
}

func filenameFor(id, templateName string) string {
	return strings.ReplaceAll(id, "-", "") + TemplateExt(templateName)
}
