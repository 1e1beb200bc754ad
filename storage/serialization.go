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


package storage

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"

	"github.com/poiesic/ragpipe/core"
)

// Records are serialized with the MUS format: fields in declaration order,
// no framing. Timestamps are stored as UnixMicro, durations as nanoseconds.
// Any field added here must be appended, never inserted, or existing
// databases become unreadable.

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, varint.Uint64.Size(uint64(id)))
	varint.Uint64.Marshal(uint64(id), buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return 0, fmt.Errorf("%w: id: %w", ErrSerializationFailed, err)
	}
	return core.ID(id), nil
}

// MarshalDocumentRecord serializes a DocumentRecord to bytes.
func MarshalDocumentRecord(record *core.DocumentRecord) []byte {
	size := varint.Uint64.Size(uint64(record.Id)) +
		ord.String.Size(record.Filename) +
		ord.String.Size(record.Department) +
		varint.Int.Size(record.ChunkCount) +
		varint.Int64.Size(record.FileSizeBytes) +
		ord.Bool.Size(record.OCRApplied) +
		varint.Int64.Size(record.CreatedAt.UnixMicro()) +
		varint.Int64.Size(record.UpdatedAt.UnixMicro())

	buf := make([]byte, size)
	n := varint.Uint64.Marshal(uint64(record.Id), buf)
	n += ord.String.Marshal(record.Filename, buf[n:])
	n += ord.String.Marshal(record.Department, buf[n:])
	n += varint.Int.Marshal(record.ChunkCount, buf[n:])
	n += varint.Int64.Marshal(record.FileSizeBytes, buf[n:])
	n += ord.Bool.Marshal(record.OCRApplied, buf[n:])
	n += varint.Int64.Marshal(record.CreatedAt.UnixMicro(), buf[n:])
	varint.Int64.Marshal(record.UpdatedAt.UnixMicro(), buf[n:])
	return buf
}

// UnmarshalDocumentRecord deserializes a DocumentRecord from bytes.
func UnmarshalDocumentRecord(data []byte) (*core.DocumentRecord, error) {
	var (
		record core.DocumentRecord
		offset int
	)

	id, n, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: document id: %w", ErrSerializationFailed, err)
	}
	record.Id = core.ID(id)
	offset += n

	if record.Filename, n, err = ord.String.Unmarshal(data[offset:]); err != nil {
		return nil, fmt.Errorf("%w: filename: %w", ErrSerializationFailed, err)
	}
	offset += n

	if record.Department, n, err = ord.String.Unmarshal(data[offset:]); err != nil {
		return nil, fmt.Errorf("%w: department: %w", ErrSerializationFailed, err)
	}
	offset += n

	if record.ChunkCount, n, err = varint.Int.Unmarshal(data[offset:]); err != nil {
		return nil, fmt.Errorf("%w: chunk count: %w", ErrSerializationFailed, err)
	}
	offset += n

	if record.FileSizeBytes, n, err = varint.Int64.Unmarshal(data[offset:]); err != nil {
		return nil, fmt.Errorf("%w: file size: %w", ErrSerializationFailed, err)
	}
	offset += n

	if record.OCRApplied, n, err = ord.Bool.Unmarshal(data[offset:]); err != nil {
		return nil, fmt.Errorf("%w: ocr flag: %w", ErrSerializationFailed, err)
	}
	offset += n

	createdAt, n, err := varint.Int64.Unmarshal(data[offset:])
	if err != nil {
		return nil, fmt.Errorf("%w: created at: %w", ErrSerializationFailed, err)
	}
	record.CreatedAt = time.UnixMicro(createdAt).UTC()
	offset += n

	updatedAt, _, err := varint.Int64.Unmarshal(data[offset:])
	if err != nil {
		return nil, fmt.Errorf("%w: updated at: %w", ErrSerializationFailed, err)
	}
	record.UpdatedAt = time.UnixMicro(updatedAt).UTC()

	return &record, nil
}

// MarshalQueryRecord serializes a QueryRecord to bytes.
func MarshalQueryRecord(record *core.QueryRecord) []byte {
	size := varint.Uint64.Size(uint64(record.Id)) +
		ord.String.Size(record.Query) +
		ord.String.Size(record.Answer) +
		ord.String.Size(record.Model) +
		ord.String.Size(record.SourcesJSON) +
		ord.String.Size(record.Department) +
		varint.Int64.Size(int64(record.ProcessingTime)) +
		ord.Bool.Size(record.Accelerated) +
		varint.Int64.Size(record.CreatedAt.UnixMicro())

	buf := make([]byte, size)
	n := varint.Uint64.Marshal(uint64(record.Id), buf)
	n += ord.String.Marshal(record.Query, buf[n:])
	n += ord.String.Marshal(record.Answer, buf[n:])
	n += ord.String.Marshal(record.Model, buf[n:])
	n += ord.String.Marshal(record.SourcesJSON, buf[n:])
	n += ord.String.Marshal(record.Department, buf[n:])
	n += varint.Int64.Marshal(int64(record.ProcessingTime), buf[n:])
	n += ord.Bool.Marshal(record.Accelerated, buf[n:])
	varint.Int64.Marshal(record.CreatedAt.UnixMicro(), buf[n:])
	return buf
}

// UnmarshalQueryRecord deserializes a QueryRecord from bytes.
func UnmarshalQueryRecord(data []byte) (*core.QueryRecord, error) {
	var (
		record core.QueryRecord
		offset int
	)

	id, n, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: query id: %w", ErrSerializationFailed, err)
	}
	record.Id = core.ID(id)
	offset += n

	if record.Query, n, err = ord.String.Unmarshal(data[offset:]); err != nil {
		return nil, fmt.Errorf("%w: query text: %w", ErrSerializationFailed, err)
	}
	offset += n

	if record.Answer, n, err = ord.String.Unmarshal(data[offset:]); err != nil {
		return nil, fmt.Errorf("%w: answer: %w", ErrSerializationFailed, err)
	}
	offset += n

	if record.Model, n, err = ord.String.Unmarshal(data[offset:]); err != nil {
		return nil, fmt.Errorf("%w: model: %w", ErrSerializationFailed, err)
	}
	offset += n

	if record.SourcesJSON, n, err = ord.String.Unmarshal(data[offset:]); err != nil {
		return nil, fmt.Errorf("%w: sources: %w", ErrSerializationFailed, err)
	}
	offset += n

	if record.Department, n, err = ord.String.Unmarshal(data[offset:]); err != nil {
		return nil, fmt.Errorf("%w: department: %w", ErrSerializationFailed, err)
	}
	offset += n

	processingTime, n, err := varint.Int64.Unmarshal(data[offset:])
	if err != nil {
		return nil, fmt.Errorf("%w: processing time: %w", ErrSerializationFailed, err)
	}
	record.ProcessingTime = time.Duration(processingTime)
	offset += n

	if record.Accelerated, n, err = ord.Bool.Unmarshal(data[offset:]); err != nil {
		return nil, fmt.Errorf("%w: accelerated flag: %w", ErrSerializationFailed, err)
	}
	offset += n

	createdAt, _, err := varint.Int64.Unmarshal(data[offset:])
	if err != nil {
		return nil, fmt.Errorf("%w: created at: %w", ErrSerializationFailed, err)
	}
	record.CreatedAt = time.UnixMicro(createdAt).UTC()

	return &record, nil
}
