package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/aretw0/vaultguard/pkg/domain"
)

// maxBodyBytes bounds request bodies; the sanitizer bounds individual strings.
const maxBodyBytes = 1 << 20

// decode reads the body, validates it against the named component schema and
// unmarshals it into dst. An empty body is accepted when optional is set.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, schema string, dst any, optional bool) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: reading body: %v", domain.ErrInvalidRequest, err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		if optional {
			return nil
		}
		return fmt.Errorf("%w: request body is required", domain.ErrInvalidRequest)
	}

	var value any
	if err := json.Unmarshal(body, &value); err != nil {
		return fmt.Errorf("%w: malformed JSON: %v", domain.ErrInvalidRequest, err)
	}

	ref, ok := s.doc.Components.Schemas[schema]
	if !ok || ref.Value == nil {
		return fmt.Errorf("unknown schema %q", schema)
	}
	if err := ref.Value.VisitJSON(value); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}
	return nil
}
