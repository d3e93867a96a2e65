package message

import (
	"github.com/stoik/mailview/internal/models"
)

// DefaultAttachmentName is used when a part declares no filename.
const DefaultAttachmentName = "attachment"

// FindByAttachmentID returns the first part whose body references attachmentID.
func FindByAttachmentID(parts []*models.Part, attachmentID string) *models.Part {
	if attachmentID == "" {
		return nil
	}
	return FindByIdentity(parts, Identity{AttachmentID: attachmentID})
}

// FindByFilename returns the first part declaring filename.
func FindByFilename(parts []*models.Part, filename string) *models.Part {
	if filename == "" {
		return nil
	}
	return FindByIdentity(parts, Identity{Filename: filename})
}

// ResolveAttachment locates the part for an attachment download. The id is
// tried over the whole tree first; the filename hint is only consulted when
// no part carries the id, since the provider may hand out a different id on
// each fetch of the same message.
func ResolveAttachment(parts []*models.Part, attachmentID, filenameHint string) *models.Part {
	if p := FindByAttachmentID(parts, attachmentID); p != nil {
		return p
	}
	return FindByFilename(parts, filenameHint)
}

// AttachmentFilename returns the declared filename or the default name.
func AttachmentFilename(p *models.Part) string {
	if p == nil || p.Filename == "" {
		return DefaultAttachmentName
	}
	return p.Filename
}

// Attachments lists every leaf with a filename.
func Attachments(parts []*models.Part) []models.AttachmentRef {
	refs := []models.AttachmentRef{}
	for _, p := range Flatten(parts) {
		if p.Filename == "" {
			continue
		}
		refs = append(refs, models.AttachmentRef{
			Filename:     p.Filename,
			AttachmentID: p.Body.AttachmentID,
			MimeType:     p.MimeType,
			Size:         p.Body.Size,
		})
	}
	return refs
}
