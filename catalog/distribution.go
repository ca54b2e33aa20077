package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/civicdata/metastore/internal/mediatype"
	"github.com/civicdata/metastore/store"
)

// distributionTypeAPI marks distributions backed by an API endpoint rather
// than files.
const distributionTypeAPI = "api"

// DistributionRepository manages distributions nested under an edition.
type DistributionRepository struct {
	engine
}

// Create writes a new distribution under editionID with a randomly generated
// identifier segment. File and API payloads are mutually exclusive, and the
// content type is derived from the filename extension rather than stored
// verbatim.
func (r *DistributionRepository) Create(ctx context.Context, editionID string, content Item) (string, error) {
	if err := validateDistribution(content); err != nil {
		return "", err
	}
	id := editionID + "/" + uuid.NewString()
	return r.create(ctx, id, withDerivedContentType(content), editionID, store.TypeEdition, false)
}

// Update replaces a distribution's attributes, re-validating the payload and
// re-deriving the content type.
func (r *DistributionRepository) Update(ctx context.Context, id string, content Item) (string, error) {
	if err := validateDistribution(content); err != nil {
		return "", err
	}
	if _, err := r.update(ctx, id, withDerivedContentType(content), false); err != nil {
		return "", err
	}
	return id, nil
}

// Patch shallow-merges onto a distribution. The merged view is validated and
// the content type re-derived, so a patch cannot assemble a payload
// combination a full update would reject, and a changed filename does not
// leave a stale content type behind.
func (r *DistributionRepository) Patch(ctx context.Context, id string, content Item) (string, error) {
	existing, err := r.Get(ctx, id, false)
	if err != nil {
		return "", err
	}
	merged := existing.clone()
	for k, v := range content {
		merged[k] = v
	}
	if err := validateDistribution(merged); err != nil {
		return "", err
	}
	if _, err := r.update(ctx, id, withDerivedContentType(merged), false); err != nil {
		return "", err
	}
	return id, nil
}

// validateDistribution enforces the file/API mutual exclusivity: api
// distributions must carry api_url and no filenames, all others must not
// carry api_url.
func validateDistribution(content Item) error {
	distributionType, _ := content["distribution_type"].(string)
	apiURL, _ := content["api_url"].(string)
	hasFiles := content["filename"] != nil || content["filenames"] != nil

	if distributionType == distributionTypeAPI {
		if apiURL == "" {
			return &ValidationError{Attribute: "api_url", Reason: `required when distribution_type is "api"`}
		}
		if hasFiles {
			return &ValidationError{Attribute: "filenames", Reason: `not allowed when distribution_type is "api"`}
		}
		return nil
	}
	if apiURL != "" {
		return &ValidationError{Attribute: "api_url", Reason: `only allowed when distribution_type is "api"`}
	}
	return nil
}

// withDerivedContentType sets content_type from the filename extension. With
// no filename present, or an unrecognized extension, the content type is
// left unset rather than guessed.
func withDerivedContentType(content Item) Item {
	name := firstFilename(content)
	if name == "" {
		return content
	}
	mt := mediatype.FromFilename(name)
	if mt == "" {
		return content
	}
	out := content.clone()
	out["content_type"] = mt
	return out
}

// firstFilename prefers the plural filenames attribute over filename.
func firstFilename(content Item) string {
	if names, ok := content["filenames"].([]any); ok && len(names) > 0 {
		if s, ok := names[0].(string); ok {
			return s
		}
	}
	if names, ok := content["filenames"].([]string); ok && len(names) > 0 {
		return names[0]
	}
	s, _ := content["filename"].(string)
	return s
}
