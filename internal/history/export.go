package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"sketch-sim/internal/creation"
)

// Export serializes one creation as indented JSON suitable for sharing.
func Export(cr *creation.Creation) ([]byte, error) {
	data, err := json.MarshalIndent(cr, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export creation: %w", err)
	}
	return data, nil
}

// Import decodes an exported creation and stores it. Records missing a name
// or document are rejected; a record whose ID is already in history is
// skipped and reported as ErrDuplicate.
func (s *Store) Import(ctx context.Context, data []byte) (*creation.Creation, error) {
	var cr creation.Creation
	if err := json.Unmarshal(data, &cr); err != nil {
		return nil, fmt.Errorf("decode import: %w", err)
	}
	if strings.TrimSpace(cr.Name) == "" {
		return nil, errors.New("import missing name")
	}
	if strings.TrimSpace(cr.HTML) == "" {
		return nil, errors.New("import missing document")
	}
	if cr.ID == "" {
		// Hand-edited files may drop the ID; mint one rather than reject.
		fresh := creation.New(cr.Name, cr.HTML, cr.OriginalImage)
		fresh.CreatedAt = cr.CreatedAt
		cr = *fresh
	}
	if err := s.Insert(ctx, &cr); err != nil {
		return nil, err
	}
	return &cr, nil
}
