// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import "fmt"

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - ID must not be empty (assigned at chunk-creation time)
//   - Text must not be empty
//   - Source must not be empty
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidChunk)
	}

	if chunk.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyText)
	}

	if chunk.Source == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyFilename)
	}

	return nil
}

// ValidateDocumentRecord validates a DocumentRecord according to domain rules.
//
// Validation rules:
//   - Filename must not be empty (it is the natural key)
//   - Department must not be empty and must already be normalized
//
// NOT validated:
//   - ChunkCount (zero is valid for documents that produced no content)
//   - Id (derived from Filename by the repository when zero)
func ValidateDocumentRecord(record *DocumentRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidDocumentRecord)
	}

	if record.Filename == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocumentRecord, ErrEmptyFilename)
	}

	if record.Department == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocumentRecord, ErrEmptyDepartment)
	}

	if record.Department != NormalizeDepartment(record.Department) {
		return fmt.Errorf("%w: department %q is not normalized", ErrInvalidDocumentRecord, record.Department)
	}

	return nil
}

// ValidateQueryRecord validates a QueryRecord according to domain rules.
//
// Validation rules:
//   - Query must not be empty
//
// NOT validated:
//   - Answer (error-string answers from failed generations are valid)
//   - Id (0 is valid before the history store assigns one)
func ValidateQueryRecord(record *QueryRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidQueryRecord)
	}

	if record.Query == "" {
		return fmt.Errorf("%w: %w", ErrInvalidQueryRecord, ErrEmptyQuery)
	}

	return nil
}
