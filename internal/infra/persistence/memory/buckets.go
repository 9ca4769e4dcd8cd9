package memory

import (
	"encoding/json"
	"fmt"
)

// Buckets lists the snapshot partitions written by durable backends, one row
// per collection.
var Buckets = []string{"users", "projects", "tasks", "complaints", "inventory", "invoices", "attendance"}

func (s *Snapshot) bucketTarget(bucket string) (any, bool) {
	switch bucket {
	case "users":
		return &s.Users, true
	case "projects":
		return &s.Projects, true
	case "tasks":
		return &s.Tasks, true
	case "complaints":
		return &s.Complaints, true
	case "inventory":
		return &s.Inventory, true
	case "invoices":
		return &s.Invoices, true
	case "attendance":
		return &s.Attendance, true
	}
	return nil, false
}

// EncodeBucket marshals one collection of the snapshot.
func (s Snapshot) EncodeBucket(bucket string) ([]byte, error) {
	target, ok := s.bucketTarget(bucket)
	if !ok {
		return nil, fmt.Errorf("unknown bucket %q", bucket)
	}
	data, err := json.Marshal(target)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", bucket, err)
	}
	return data, nil
}

// DecodeBucket unmarshals payload into the matching collection. Unknown
// buckets are ignored so older rows do not block startup.
func (s *Snapshot) DecodeBucket(bucket string, payload []byte) error {
	if len(payload) == 0 {
		return nil
	}
	target, ok := s.bucketTarget(bucket)
	if !ok {
		return nil
	}
	if err := json.Unmarshal(payload, target); err != nil {
		return fmt.Errorf("decode %s: %w", bucket, err)
	}
	return nil
}
