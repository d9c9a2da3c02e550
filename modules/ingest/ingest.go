package ingest

import (
	"fmt"
	"log"
	"strings"

	"prompt-forge-server/modules/common/utils"
)

// MaxFileSizeBytes - per-file upload ceiling (4 MiB)
const MaxFileSizeBytes = 4 * 1024 * 1024

const maxFileSizeMB = 4

const (
	thumbnailMaxDim  = 256
	thumbnailQuality = 75
)

// Process - validate one ingestion batch against a slot's policy
// Files are checked in submission order. Rejections never abort acceptance
// of the valid subset, and are merged into a single warning message.
func Process(existing []SourceFile, incoming []SourceFile, policy Policy) Result {
	var base []SourceFile
	if policy.Append {
		base = existing
	}

	accepted := make([]SourceFile, 0, len(incoming))
	var rejected []Rejection

	for _, file := range incoming {
		if len(base)+len(accepted) >= policy.MaxFiles {
			rejected = append(rejected, Rejection{
				FileName: file.Name,
				Reason:   fmt.Sprintf("limit of %d files for this mode", policy.MaxFiles),
			})
			continue
		}
		if file.ByteSize() > MaxFileSizeBytes {
			rejected = append(rejected, Rejection{
				FileName: file.Name,
				Reason:   fmt.Sprintf("exceeds %dMB", maxFileSizeMB),
			})
			continue
		}
		if !strings.HasPrefix(file.MimeType, "image/") {
			rejected = append(rejected, Rejection{
				FileName: file.Name,
				Reason:   "invalid type, not an image",
			})
			continue
		}
		accepted = append(accepted, file)
	}

	return Result{
		Accepted: append(append([]SourceFile{}, base...), accepted...),
		Rejected: rejected,
		Message:  RejectionMessage(rejected, policy.MaxFiles),
	}
}

// RejectionMessage - merge every rejection of one batch into the single
// warning shown to the user, empty when nothing was rejected
func RejectionMessage(rejected []Rejection, maxFiles int) string {
	if len(rejected) == 0 {
		return ""
	}

	parts := make([]string, len(rejected))
	for i, r := range rejected {
		parts[i] = fmt.Sprintf("%s (%s)", r.FileName, r.Reason)
	}
	return fmt.Sprintf("Some files were not added: %s. Max %d files, %dMB/file, images only.",
		strings.Join(parts, ", "), maxFiles, maxFileSizeMB)
}

// Preview - render a WebP thumbnail data URL for an accepted file
// A render failure is a warning, never a rejection.
func Preview(file SourceFile) (string, bool) {
	thumb, err := utils.MakeWebPThumbnail(file.Data, thumbnailMaxDim, thumbnailQuality)
	if err != nil {
		log.Printf("⚠️  [Ingest] Preview render failed for %s: %v", file.Name, err)
		return "", false
	}
	return utils.ToDataURL(utils.ConvertImageToBase64(thumb), "image/webp"), true
}
