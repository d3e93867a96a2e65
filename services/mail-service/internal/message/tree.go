package message

import (
	"strings"

	"github.com/stoik/mailview/internal/models"
)

// maxDepth bounds recursion over provider-supplied part trees.
const maxDepth = 64

// Identity lists the criteria FindByIdentity accepts. Empty fields are ignored.
type Identity struct {
	AttachmentID string
	Filename     string
	MimeType     string
}

func (id Identity) matches(p *models.Part) bool {
	if id.AttachmentID != "" && p.Body.AttachmentID == id.AttachmentID {
		return true
	}
	if id.Filename != "" && p.Filename == id.Filename {
		return true
	}
	return id.MimeType != "" && strings.EqualFold(p.MimeType, id.MimeType)
}

// FindFirstByType returns the first part whose content type is mimeType, in
// depth-first pre-order, or nil.
func FindFirstByType(parts []*models.Part, mimeType string) *models.Part {
	return find(parts, 0, func(p *models.Part) bool {
		return strings.EqualFold(p.MimeType, mimeType)
	})
}

// FindByIdentity returns the first part, in document order, matching ANY of
// the supplied criteria. Criteria have no priority over each other: the
// earliest matching part wins.
func FindByIdentity(parts []*models.Part, id Identity) *models.Part {
	if id == (Identity{}) {
		return nil
	}
	return find(parts, 0, id.matches)
}

func find(parts []*models.Part, depth int, match func(*models.Part) bool) *models.Part {
	if depth > maxDepth {
		return nil
	}
	for _, p := range parts {
		if p == nil {
			continue
		}
		if match(p) {
			return p
		}
		if !p.IsLeaf() {
			if found := find(p.Parts, depth+1, match); found != nil {
				return found
			}
		}
	}
	return nil
}

// Flatten returns the leaf parts of the tree in document order.
func Flatten(parts []*models.Part) []*models.Part {
	var leaves []*models.Part
	flatten(parts, 0, &leaves)
	return leaves
}

func flatten(parts []*models.Part, depth int, leaves *[]*models.Part) {
	if depth > maxDepth {
		return
	}
	for _, p := range parts {
		if p == nil {
			continue
		}
		if p.IsLeaf() {
			*leaves = append(*leaves, p)
			continue
		}
		flatten(p.Parts, depth+1, leaves)
	}
}
